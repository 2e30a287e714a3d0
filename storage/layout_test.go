package storage

import (
	"testing"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
)

func schemaWithTypes(t *testing.T, types []sql.DataType) catalog.Schema {
	t.Helper()
	var cols []catalog.Column
	for i, dt := range types {
		ct, err := sql.ColumnTypeFor(dt, false)
		if err != nil {
			t.Fatal(err)
		}
		cols = append(cols, catalog.Column{Oid: sql.ColOid(i + 1), Name: string(rune('a' + i)), Type: ct})
	}
	return catalog.Schema{Columns: cols}
}

func TestBuildLayoutBucketsBySize(t *testing.T) {
	// StringType (VARLEN), BigIntType (8), IntegerType (4), SmallIntType (2),
	// TinyIntType (1), added in reverse-bucket order to prove bucketing, not
	// insertion order, decides physical placement modulo the schema-order
	// tie-break within a bucket.
	schema := schemaWithTypes(t, []sql.DataType{
		sql.TinyIntType, sql.SmallIntType, sql.IntegerType, sql.BigIntType, sql.StringType,
	})
	built, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []sql.AttrSize{sql.VarlenSize, sql.Size8, sql.Size4, sql.Size2, sql.Size1}
	for i, want := range wantOrder {
		id := sql.ColId(sql.NumReservedColumns + i)
		if got := built.Layout.AttrSize(id); got != want {
			t.Errorf("AttrSize(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestBuildLayoutDeterministic(t *testing.T) {
	schema := schemaWithTypes(t, []sql.DataType{sql.IntegerType, sql.StringType, sql.BigIntType})
	a, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Layout.Equal(b.Layout) {
		t.Fatal("BuildLayout: same schema produced different layouts")
	}
	for oid, id := range a.OidToId {
		if b.OidToId[oid] != id {
			t.Fatalf("OidToId[%d] = %d, want %d", oid, b.OidToId[oid], id)
		}
	}
}

func TestBuildLayoutSchemaOrderTieBreak(t *testing.T) {
	// Two IntegerType columns: within the Size4 bucket, col_ids must be
	// assigned in schema order (oid 5 before oid 2, since 5 appears first).
	i32, _ := sql.ColumnTypeFor(sql.IntegerType, false)
	schema := catalog.Schema{Columns: []catalog.Column{
		{Oid: 5, Name: "first", Type: i32},
		{Oid: 2, Name: "second", Type: i32},
	}}
	built, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}
	firstId := built.OidToId[5]
	secondId := built.OidToId[2]
	if firstId >= secondId {
		t.Fatalf("schema-order tie-break violated: id(oid 5) = %d, id(oid 2) = %d", firstId, secondId)
	}
}

func TestBuildLayoutReservedColumnsFirst(t *testing.T) {
	schema := schemaWithTypes(t, []sql.DataType{sql.IntegerType})
	built, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}
	if built.Layout.AttrSize(sql.VersionPointerColumnID) != sql.Size8 {
		t.Fatal("reserved column 0 is not an 8-byte slot")
	}
	if built.Layout.NumColumns() != sql.NumReservedColumns+1 {
		t.Fatalf("NumColumns() = %d, want %d", built.Layout.NumColumns(), sql.NumReservedColumns+1)
	}
}

func TestBuildLayoutDefaultsOnlyForColumnsWithDefault(t *testing.T) {
	i32, _ := sql.ColumnTypeFor(sql.IntegerType, false)
	schema := catalog.Schema{Columns: []catalog.Column{
		{Oid: 1, Name: "a", Type: i32},
		{Oid: 2, Name: "b", Type: i32, Default: catalog.Literal{Value: sql.Int64Value(7)}},
	}}
	built, err := BuildLayout(schema)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := built.Defaults[1]; ok {
		t.Fatal("column with no default should have no Defaults entry")
	}
	if _, ok := built.Defaults[2]; !ok {
		t.Fatal("column with default should have a Defaults entry")
	}
}
