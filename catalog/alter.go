package catalog

import (
	"fmt"

	"github.com/mahodb/sqltable/sql"
)

// AlterKind tags the variant of an AlterCmd. The core recognizes only add
// and drop column as schema deltas; altering a column's type, nullability,
// or default after creation is out of scope.
type AlterKind int

const (
	AddColumn AlterKind = iota
	DropColumn
)

func (k AlterKind) String() string {
	switch k {
	case AddColumn:
		return "ADD COLUMN"
	case DropColumn:
		return "DROP COLUMN"
	}
	return "UNKNOWN"
}

// AlterCmd is a tagged-variant description of one schema delta, dispatched
// by Apply through a single switch rather than a hierarchy of AlterCmd
// implementations, so adding a command kind is one match arm rather than a
// new derived type. AddColumnCmd and DropColumnCmd below are thin
// constructors around this type; the real work happens in Apply.
type AlterCmd struct {
	Kind AlterKind

	// Column is populated for AddColumn.
	Column Column

	// Oid and IfExists are populated for DropColumn.
	Oid      sql.ColOid
	IfExists bool
}

// AddColumnCmd builds an AlterCmd that adds col to the schema.
func AddColumnCmd(col Column) AlterCmd {
	return AlterCmd{Kind: AddColumn, Column: col}
}

// DropColumnCmd builds an AlterCmd that drops oid from the schema.
func DropColumnCmd(oid sql.ColOid, ifExists bool) AlterCmd {
	return AlterCmd{Kind: DropColumn, Oid: oid, IfExists: ifExists}
}

// Apply produces the Schema that results from applying cmd to base. It does
// not mutate base. The returned Schema is not yet registered with a version
// registry; the caller (sqltable.SqlTable.UpdateSchema by way of ddl.go) is
// responsible for that.
func Apply(base Schema, cmd AlterCmd) (Schema, error) {
	switch cmd.Kind {
	case AddColumn:
		if _, dup := base.Column(cmd.Column.Oid); dup {
			return Schema{}, fmt.Errorf("catalog: alter: column %d already exists", cmd.Column.Oid)
		}
		RequireConstant(cmd.Column.Oid, cmd.Column.Default)
		next := base.Clone()
		next.Columns = append(next.Columns, cmd.Column)
		return next, nil

	case DropColumn:
		_, ok := base.Column(cmd.Oid)
		if !ok {
			if cmd.IfExists {
				return base.Clone(), nil
			}
			return Schema{}, fmt.Errorf("catalog: alter: column %d does not exist", cmd.Oid)
		}
		next := Schema{Columns: make([]Column, 0, len(base.Columns)-1)}
		for _, c := range base.Columns {
			if c.Oid != cmd.Oid {
				next.Columns = append(next.Columns, c)
			}
		}
		return next, nil

	default:
		panic(fmt.Sprintf("catalog: alter: unknown AlterKind %d", cmd.Kind))
	}
}
