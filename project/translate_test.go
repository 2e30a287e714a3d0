package project

import (
	"testing"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/version"
)

func col(oid sql.ColOid, name string, dt sql.DataType, def catalog.Expr) catalog.Column {
	ct, _ := sql.ColumnTypeFor(dt, true)
	return catalog.Column{Oid: oid, Name: name, Type: ct, Default: def}
}

func TestTranslateSurvivingColumn(t *testing.T) {
	reg := version.NewRegistry(0)
	v0, _ := reg.Register(catalog.Schema{Columns: []catalog.Column{col(1, "a", sql.IntegerType, nil)}})
	v1, _ := reg.Register(catalog.Schema{Columns: []catalog.Column{
		col(1, "a", sql.IntegerType, nil),
		col(2, "b", sql.IntegerType, catalog.Literal{Value: sql.Int64Value(0)}),
	}})

	idA := v1.OidToId[1]
	header := []sql.ColId{idA}
	tr := Translate(header, v0, v1)

	if len(tr.Missing) != 0 {
		t.Fatalf("Missing = %v, want none", tr.Missing)
	}
	if header[0] != v0.OidToId[1] {
		t.Fatalf("header[0] = %d, want %d (v0's id for oid 1)", header[0], v0.OidToId[1])
	}
}

func TestTranslateMissingColumnBecomesIgnored(t *testing.T) {
	reg := version.NewRegistry(0)
	v0, _ := reg.Register(catalog.Schema{Columns: []catalog.Column{col(1, "a", sql.IntegerType, nil)}})
	v1, _ := reg.Register(catalog.Schema{Columns: []catalog.Column{
		col(1, "a", sql.IntegerType, nil),
		col(2, "b", sql.IntegerType, catalog.Literal{Value: sql.Int64Value(9)}),
	}})

	idA := v1.OidToId[1]
	idB := v1.OidToId[2]
	header := []sql.ColId{idA, idB}
	tr := Translate(header, v0, v1)

	if len(tr.Missing) != 1 || tr.Missing[0] != 2 {
		t.Fatalf("Missing = %v, want [2]", tr.Missing)
	}
	if header[1] != sql.IgnoreColumnID {
		t.Fatalf("header[1] = %d, want IgnoreColumnID", header[1])
	}
	if header[0] != v0.OidToId[1] {
		t.Fatalf("header[0] = %d, want v0's id for oid 1", header[0])
	}
}
