// Command sqltable is a small demonstration client for the versioned
// table library: it builds a table, runs it through a schema change, and
// prints the result, so the storage engine can be exercised end to end
// without a SQL front end.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mahodb/sqltable/config"
)

var (
	rootCmd = &cobra.Command{
		Use:               "sqltable",
		Short:             "Versioned table demo",
		Long:              "sqltable exercises a schema-versioned MVCC table engine end to end.",
		PersistentPreRunE: preRun,
		PersistentPostRun: postRun,
	}

	logFile   = ""
	logLevel  = "info"
	logStderr = true

	configFile = "sqltable.hcl"
	noConfig   = false

	registry  = config.NewRegistry()
	logWriter io.WriteCloser
)

func init() {
	log.SetFormatter(&log.TextFormatter{DisableLevelTruncation: true})

	fs := rootCmd.PersistentFlags()
	registry.StringVar(fs, &logFile, "log-file", logFile, "`file` to log to, in addition to or instead of stderr")
	registry.StringVar(fs, &logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	registry.BoolVar(fs, &logStderr, "log-stderr", logStderr, "log to standard error")
	fs.StringVar(&configFile, "config-file", configFile, "`file` to load config from")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't load config file")

	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func preRun(cmd *cobra.Command, args []string) error {
	registry.MarkUsed(cmd.Flags())

	if configFile != "" && !noConfig {
		if err := registry.Load(configFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("sqltable: %s", err)
		}
	}

	if logFile != "" {
		var err error
		logWriter, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logWriter = nil
			return fmt.Errorf("sqltable: %s", err)
		}
		if logStderr {
			log.SetOutput(io.MultiWriter(os.Stderr, logWriter))
		} else {
			log.SetOutput(logWriter)
		}
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("sqltable: %s", err)
	}
	log.SetLevel(ll)

	log.WithField("pid", os.Getpid()).Info("sqltable starting")
	return nil
}

func postRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("sqltable done")
	if logWriter != nil {
		logWriter.Close()
	}
}
