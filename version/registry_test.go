package version

import (
	"testing"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
)

func intSchema(oid sql.ColOid, name string, def catalog.Expr) catalog.Schema {
	ct, _ := sql.ColumnTypeFor(sql.IntegerType, true)
	return catalog.Schema{Columns: []catalog.Column{{Oid: oid, Name: name, Type: ct, Default: def}}}
}

func TestRegistryRegisterAssignsSequentialVersions(t *testing.T) {
	r := NewRegistry(0)
	v0, err := r.Register(intSchema(1, "a", nil))
	if err != nil {
		t.Fatal(err)
	}
	v1, err := r.Register(intSchema(2, "b", nil))
	if err != nil {
		t.Fatal(err)
	}
	if v0.Version != 0 || v1.Version != 1 {
		t.Fatalf("versions = %d, %d, want 0, 1", v0.Version, v1.Version)
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}

func TestRegistryGetAndLatest(t *testing.T) {
	r := NewRegistry(0)
	r.Register(intSchema(1, "a", nil))
	second, _ := r.Register(intSchema(2, "b", nil))

	got, ok := r.Get(1)
	if !ok || got != second {
		t.Fatal("Get(1) did not return the second registered version")
	}
	if r.Latest() != second {
		t.Fatal("Latest() did not return the most recently registered version")
	}
	if _, ok := r.Get(5); ok {
		t.Fatal("Get(5): expected false for an unregistered version")
	}
}

func TestRegistryEnforcesMaxVersions(t *testing.T) {
	r := NewRegistry(1)
	if _, err := r.Register(intSchema(1, "a", nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(intSchema(2, "b", nil)); err == nil {
		t.Fatal("Register: expected error once the registry is at capacity")
	}
}

func TestRegistryBetween(t *testing.T) {
	r := NewRegistry(0)
	r.Register(intSchema(1, "a", nil))
	r.Register(intSchema(2, "b", catalog.Literal{Value: sql.Int64Value(1)}))
	r.Register(intSchema(3, "c", catalog.Literal{Value: sql.Int64Value(2)}))

	between := r.Between(0, 2)
	if len(between) != 2 {
		t.Fatalf("len(Between(0, 2)) = %d, want 2", len(between))
	}
	if between[0].Version != 1 || between[1].Version != 2 {
		t.Fatalf("Between order = %d, %d, want 1, 2", between[0].Version, between[1].Version)
	}

	if got := r.Between(2, 2); len(got) != 0 {
		t.Fatalf("Between(2, 2) = %d entries, want 0", len(got))
	}
}
