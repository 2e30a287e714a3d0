// Package config provides a small typed configuration registry: flags
// registered against a pflag.FlagSet, loadable from an HCL file, with
// command-line flags always winning over the file when both set the same
// name.
package config

import (
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/spf13/pflag"
)

// Registry tracks every flag a program has registered as a config
// variable, so a loaded HCL file can be applied onto them by name.
type Registry struct {
	mu     sync.Mutex
	params map[string]*param
}

type param struct {
	flag *pflag.Flag
	used bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{params: make(map[string]*param)}
}

// BoolVar registers name on fs as a bool config variable.
func (r *Registry) BoolVar(fs *pflag.FlagSet, p *bool, name string, value bool, usage string) {
	fs.BoolVar(p, name, value, usage)
	r.track(fs, name)
}

// StringVar registers name on fs as a string config variable.
func (r *Registry) StringVar(fs *pflag.FlagSet, p *string, name, value, usage string) {
	fs.StringVar(p, name, value, usage)
	r.track(fs, name)
}

// IntVar registers name on fs as an int config variable.
func (r *Registry) IntVar(fs *pflag.FlagSet, p *int, name string, value int, usage string) {
	fs.IntVar(p, name, value, usage)
	r.track(fs, name)
}

func (r *Registry) track(fs *pflag.FlagSet, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[name] = &param{flag: fs.Lookup(name)}
}

// MarkUsed records which of fs's flags were explicitly set on the command
// line; Load will not let the config file override those.
func (r *Registry) MarkUsed(fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		r.mu.Lock()
		if p, ok := r.params[f.Name]; ok {
			p.used = true
		}
		r.mu.Unlock()
	})
}

// Load decodes the HCL file at path and applies each top-level key onto
// its registered flag of the same name, skipping any flag MarkUsed
// already marked as explicitly set. It is an error for the file to name
// a key with no registered flag.
func (r *Registry) Load(path string) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := hcl.Decode(&raw, string(b)); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, val := range raw {
		p, ok := r.params[name]
		if !ok {
			return fmt.Errorf("config: %s: %s is not a config variable", path, name)
		}
		if p.used || p.flag == nil {
			continue
		}
		if err := p.flag.Value.Set(fmt.Sprintf("%v", val)); err != nil {
			return fmt.Errorf("config: %s: %s: %w", path, name, err)
		}
	}
	return nil
}
