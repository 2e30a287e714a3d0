package storage

import "github.com/mahodb/sqltable/sql"

// BlockId identifies a physical row-group block within one DataTable. It
// is opaque outside this package; callers never need it to mean anything
// beyond "which block".
type BlockId uint64

// TupleSlot is an opaque (block, offset) tuple identity. It carries the
// layout version under which the tuple was physically laid out, so the
// versioned table API can recover a tuple's own schema version from a
// slot without a live handle to the block it lives in.
type TupleSlot struct {
	Block         BlockId
	Offset        uint32
	LayoutVersion sql.LayoutVersion
}

// IsZero reports whether the slot is the zero value, used to enforce
// that a fresh RedoRecord's slot starts out unset before an insert
// assigns it one.
func (s TupleSlot) IsZero() bool {
	return s == TupleSlot{}
}
