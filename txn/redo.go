package txn

import (
	"sync"

	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
)

// RedoRecord is the after-image of a staged insert or update, expressed
// in the physical col_ids of the version the caller was writing against.
// LayoutVersion names the version whose col_ids Updates is expressed in;
// for a migrate-update that is the destination version, not the version
// of the deleted source tuple.
type RedoRecord struct {
	Slot          storage.TupleSlot
	LayoutVersion sql.LayoutVersion
	Updates       []sql.ColumnUpdate
}

// RedoBuffer accumulates one transaction's staged writes and deletes.
// Nothing in this module drains it to a write-ahead log; persistence is
// out of scope, but core code still stages through it so the sequence of
// writes a transaction made is inspectable.
type RedoBuffer struct {
	mu      sync.Mutex
	writes  []*RedoRecord
	deletes []storage.TupleSlot
}

func (b *RedoBuffer) stageWrite(r *RedoRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, r)
}

func (b *RedoBuffer) stageDelete(slot storage.TupleSlot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, slot)
}

// Writes returns the staged write records, in staging order.
func (b *RedoBuffer) Writes() []*RedoRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*RedoRecord, len(b.writes))
	copy(out, b.writes)
	return out
}

// Deletes returns the staged delete targets, in staging order.
func (b *RedoBuffer) Deletes() []storage.TupleSlot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]storage.TupleSlot, len(b.deletes))
	copy(out, b.deletes)
	return out
}
