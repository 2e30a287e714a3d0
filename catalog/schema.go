package catalog

import (
	"fmt"

	"github.com/mahodb/sqltable/sql"
)

// Column is a logical column: its catalog-assigned identity, type,
// nullability, and an optional constant default expression. Every col_oid
// appears at most once in the Schema that contains it.
type Column struct {
	Oid      sql.ColOid
	Name     string
	Type     sql.ColumnType
	Default  Expr // nil if the column has no default
}

// Schema is an ordered list of logical columns. Order matters: the Physical
// Layout Builder assigns col_ids within an attribute-size bucket in schema
// order, so two Schemas with the same columns in different orders can
// produce different (but still internally consistent) BlockLayouts.
type Schema struct {
	Columns []Column
}

// Column looks up a column by its logical oid.
func (s Schema) Column(oid sql.ColOid) (Column, bool) {
	for _, c := range s.Columns {
		if c.Oid == oid {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the Schema's invariants: no duplicate col_oids, and every
// default expression (if present) is constant. It does not check physical
// layout feasibility; that is the Physical Layout Builder's job.
func (s Schema) Validate() error {
	seen := make(map[sql.ColOid]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c.Oid]; dup {
			return fmt.Errorf("catalog: schema: duplicate col_oid %d", c.Oid)
		}
		seen[c.Oid] = struct{}{}
		if c.Default != nil && !c.Default.IsConstant() {
			return fmt.Errorf("catalog: schema: column %d (%s): non-constant default expression",
				c.Oid, c.Name)
		}
	}
	return nil
}

// Clone returns a Schema with its own backing column slice, so a caller can
// build a new version's Schema by copying and mutating a prior version's
// without aliasing it. Column values themselves are immutable value types.
func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	return Schema{Columns: cols}
}
