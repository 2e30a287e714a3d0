package catalog

import (
	"testing"

	"github.com/mahodb/sqltable/sql"
)

func baseSchema() Schema {
	intType, _ := sql.ColumnTypeFor(sql.IntegerType, false)
	return Schema{Columns: []Column{{Oid: 1, Name: "a", Type: intType}}}
}

func TestApplyAddColumn(t *testing.T) {
	strType, _ := sql.ColumnTypeFor(sql.StringType, true)
	next, err := Apply(baseSchema(), AddColumnCmd(Column{
		Oid: 2, Name: "b", Type: strType, Default: Literal{Value: sql.StringValue("x")},
	}))
	if err != nil {
		t.Fatalf("Apply: %s", err)
	}
	if len(next.Columns) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(next.Columns))
	}
	if len(baseSchema().Columns) != 1 {
		t.Fatal("Apply mutated a schema built independently of base")
	}
}

func TestApplyAddColumnDuplicateOid(t *testing.T) {
	intType, _ := sql.ColumnTypeFor(sql.IntegerType, false)
	_, err := Apply(baseSchema(), AddColumnCmd(Column{Oid: 1, Name: "dup", Type: intType}))
	if err == nil {
		t.Fatal("Apply: expected error for duplicate oid")
	}
}

func TestApplyAddColumnNonConstantDefaultPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Apply: expected panic for non-constant default")
		}
	}()
	intType, _ := sql.ColumnTypeFor(sql.IntegerType, false)
	Apply(baseSchema(), AddColumnCmd(Column{Oid: 2, Name: "b", Type: intType, Default: nonConstant{}}))
}

func TestApplyDropColumn(t *testing.T) {
	next, err := Apply(baseSchema(), DropColumnCmd(1, false))
	if err != nil {
		t.Fatalf("Apply: %s", err)
	}
	if len(next.Columns) != 0 {
		t.Fatalf("len(Columns) = %d, want 0", len(next.Columns))
	}
}

func TestApplyDropColumnMissing(t *testing.T) {
	if _, err := Apply(baseSchema(), DropColumnCmd(99, false)); err == nil {
		t.Fatal("Apply: expected error dropping a column that does not exist")
	}
	next, err := Apply(baseSchema(), DropColumnCmd(99, true))
	if err != nil {
		t.Fatalf("Apply with IfExists: %s", err)
	}
	if len(next.Columns) != 1 {
		t.Fatalf("len(Columns) = %d, want 1 (IfExists no-op)", len(next.Columns))
	}
}
