package main

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olekukonko/tablewriter"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/sqltable"
	"github.com/mahodb/sqltable/txn"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "insert rows, add a column, drop a column, and scan the result",
	RunE:  runDemo,
}

const (
	colID sql.ColOid = iota + 1
	colName
	colEmail
)

func demoSchema() catalog.Schema {
	idType, _ := sql.ColumnTypeFor(sql.BigIntType, false)
	nameType, _ := sql.ColumnTypeFor(sql.StringType, false)
	return catalog.Schema{
		Columns: []catalog.Column{
			{Oid: colID, Name: "id", Type: idType},
			{Oid: colName, Name: "name", Type: nameType},
		},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	table, err := sqltable.New(demoSchema(), sqltable.DefaultConfig())
	if err != nil {
		return err
	}

	mgr := txn.NewTransactionManager()

	insertInit := sqltable.InitializerForProjectedRow([]sql.ColOid{colID, colName})
	rows := []struct {
		id   int64
		name string
	}{
		{1, "ada"},
		{2, "grace"},
		{3, "margaret"},
	}

	t := mgr.Begin()
	for _, r := range rows {
		slot, err := table.Insert(t, table.LatestVersion(), insertInit, []sql.Value{sql.Int64Value(r.id), sql.StringValue(r.name)})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"id": r.id, "slot": slot}).Debug("inserted row")
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("sqltable: demo: commit insert: %w", err)
	}

	emailType, _ := sql.ColumnTypeFor(sql.StringType, true)
	if _, err := table.AddColumn(catalog.Column{
		Oid:     colEmail,
		Name:    "email",
		Type:    emailType,
		Default: catalog.Literal{Value: sql.StringValue("unknown@example.com")},
	}); err != nil {
		return fmt.Errorf("sqltable: demo: add column: %w", err)
	}
	log.WithField("version", table.LatestVersion()).Info("added email column")

	t = mgr.Begin()
	insertWithEmail := sqltable.InitializerForProjectedRow([]sql.ColOid{colID, colName, colEmail})
	if _, err := table.Insert(t, table.LatestVersion(), insertWithEmail,
		[]sql.Value{sql.Int64Value(4), sql.StringValue("katherine"), sql.StringValue("kj@example.com")}); err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("sqltable: demo: commit second insert: %w", err)
	}

	if _, err := table.DropColumn(colName, false); err != nil {
		return fmt.Errorf("sqltable: demo: drop column: %w", err)
	}
	log.WithField("version", table.LatestVersion()).Info("dropped name column")

	return printScan(table, mgr)
}

func printScan(table *sqltable.SqlTable, mgr *txn.TransactionManager) error {
	oids := []sql.ColOid{colID, colEmail}
	scanInit := sqltable.InitializerForProjectedColumns(oids)
	vd := table.LatestVersion()

	built, err := table.NewProjectedColumns(scanInit, vd, 16)
	if err != nil {
		return err
	}

	t := mgr.Begin()
	it, err := table.BeginScan(vd)
	if err != nil {
		return err
	}

	out := tablewriter.NewWriter(os.Stdout)
	out.SetHeader([]string{"id", "email"})

	for !it.Done() {
		if err := table.Scan(t, it, built); err != nil {
			return err
		}
		for row := 0; row < built.NumTuples(); row++ {
			id := ""
			if !built.IsNull(0, row) {
				id = strconv.FormatInt(int64(built.Value(0, row).(sql.Int64Value)), 10)
			}
			email := "<null>"
			if !built.IsNull(1, row) {
				email = string(built.Value(1, row).(sql.StringValue))
			}
			out.Append([]string{id, email})
		}
	}
	t.Rollback()

	out.Render()
	return nil
}
