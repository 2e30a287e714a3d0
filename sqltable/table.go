// Package sqltable implements the Versioned Table API: a SqlTable that
// looks to callers like an ordinary MVCC table, but transparently
// reconciles reads and writes across however many physical schema
// versions its Version Registry currently holds.
package sqltable

import (
	"fmt"
	"sync"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/project"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
	"github.com/mahodb/sqltable/txn"
	"github.com/mahodb/sqltable/version"
)

// Config controls a SqlTable's version-management policy.
type Config struct {
	// MaxVersions bounds the Version Registry; 0 selects
	// version.DefaultMaxVersions.
	MaxVersions int

	// StrictCrossVersionUpdate, when true (the default), rejects an
	// update against a tuple stored under an older version with a
	// retryable error whenever the update writes a column absent from
	// that tuple's own version, instead of silently migrating the row.
	StrictCrossVersionUpdate bool
}

// DefaultConfig returns the configuration a SqlTable uses when none is
// given explicitly.
func DefaultConfig() Config {
	return Config{StrictCrossVersionUpdate: true}
}

// SqlTable is a single logical table, backed by one storage.DataTable
// per schema version it has ever had.
type SqlTable struct {
	mu       sync.RWMutex
	registry *version.Registry
	strict   bool
}

// New creates a SqlTable whose first schema version is schema.
func New(schema catalog.Schema, cfg Config) (*SqlTable, error) {
	reg := version.NewRegistry(cfg.MaxVersions)
	if _, err := reg.Register(schema); err != nil {
		return nil, err
	}
	return &SqlTable{registry: reg, strict: cfg.StrictCrossVersionUpdate}, nil
}

// LatestVersion returns the version number of the table's current
// schema.
func (st *SqlTable) LatestVersion() sql.LayoutVersion {
	return st.registry.Latest().Version
}

// Schema returns the logical schema as of version v.
func (st *SqlTable) Schema(v sql.LayoutVersion) (catalog.Schema, error) {
	dtv, ok := st.registry.Get(v)
	if !ok {
		return catalog.Schema{}, fmt.Errorf("sqltable: unknown layout version %d", v)
	}
	return dtv.Schema, nil
}

// GetBlockLayout returns the physical layout of version v.
func (st *SqlTable) GetBlockLayout(v sql.LayoutVersion) (storage.BlockLayout, error) {
	dtv, ok := st.registry.Get(v)
	if !ok {
		return storage.BlockLayout{}, fmt.Errorf("sqltable: unknown layout version %d", v)
	}
	return dtv.Layout, nil
}

// GetColumnOidToIdMap returns version v's oid to col_id map.
func (st *SqlTable) GetColumnOidToIdMap(v sql.LayoutVersion) (map[sql.ColOid]sql.ColId, error) {
	dtv, ok := st.registry.Get(v)
	if !ok {
		return nil, fmt.Errorf("sqltable: unknown layout version %d", v)
	}
	return dtv.OidToId, nil
}

// GetColumnIdToOidMap returns version v's col_id to oid map.
func (st *SqlTable) GetColumnIdToOidMap(v sql.LayoutVersion) (map[sql.ColId]sql.ColOid, error) {
	dtv, ok := st.registry.Get(v)
	if !ok {
		return nil, fmt.Errorf("sqltable: unknown layout version %d", v)
	}
	return dtv.IdToOid, nil
}

// NewProjectedRow builds an output buffer for init, headered against
// version vd.
func (st *SqlTable) NewProjectedRow(init Initializer, vd sql.LayoutVersion) (*storage.ProjectedRow, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return nil, fmt.Errorf("sqltable: unknown layout version %d", vd)
	}
	return init.NewProjectedRow(desired)
}

// NewProjectedColumns builds a batch output buffer for init, headered
// against version vd.
func (st *SqlTable) NewProjectedColumns(init Initializer, vd sql.LayoutVersion, maxTuples int) (*storage.ProjectedColumns, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return nil, fmt.Errorf("sqltable: unknown layout version %d", vd)
	}
	return init.NewProjectedColumns(desired, maxTuples)
}

// Select copies the tuple at slot into out, which must have been built
// by an Initializer's NewProjectedRow against vd, the caller's desired
// version. vd is ordinarily whatever version a transaction's catalog
// snapshot pinned at begin time, not necessarily the table's current
// latest version; a schema change registered after that snapshot stays
// invisible to it. Tuples physically stored under an older version are
// transparently translated and, for columns added since, filled with
// their default. It reports false if slot names no tuple visible to t.
func (st *SqlTable) Select(t *txn.TransactionContext, vd sql.LayoutVersion, slot storage.TupleSlot, out *storage.ProjectedRow) (bool, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return false, fmt.Errorf("sqltable: select: unknown layout version %d", vd)
	}

	tuple, ok := st.registry.Get(slot.LayoutVersion)
	if !ok {
		return false, fmt.Errorf("sqltable: select: unknown layout version %d", slot.LayoutVersion)
	}
	if tuple.Version > desired.Version {
		panic(fmt.Sprintf("sqltable: select: tuple version %d is newer than desired version %d", tuple.Version, desired.Version))
	}

	if tuple.Version == desired.Version {
		return tuple.Table.Select(t, slot, out, nil), nil
	}

	saved := out.SaveHeader()
	tr := project.Translate(out.ColumnIds, tuple, desired)
	found := tuple.Table.Select(t, slot, out, tr.Overrides)
	if !found {
		out.RestoreHeader(saved)
		return false, nil
	}
	if err := project.Fill(st.registry, tuple, desired, tr.Missing, saved, out); err != nil {
		out.RestoreHeader(saved)
		return false, err
	}
	out.RestoreHeader(saved)
	return true, nil
}

// Insert writes a new tuple under version vd, the caller's desired
// version. values must align 1:1 with init.Oids.
func (st *SqlTable) Insert(t *txn.TransactionContext, vd sql.LayoutVersion, init Initializer, values []sql.Value) (storage.TupleSlot, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return storage.TupleSlot{}, fmt.Errorf("sqltable: insert: unknown layout version %d", vd)
	}

	ids, err := init.ColumnIds(desired)
	if err != nil {
		return storage.TupleSlot{}, err
	}
	if len(values) != len(ids) {
		return storage.TupleSlot{}, fmt.Errorf(
			"sqltable: insert: got %d values for %d columns", len(values), len(ids))
	}

	full := make([]sql.Value, desired.Layout.NumColumns())
	updates := make([]sql.ColumnUpdate, len(ids))
	for i, id := range ids {
		full[id] = values[i]
		updates[i] = sql.ColumnUpdate{ColumnId: id, Value: values[i]}
	}

	redo := &txn.RedoRecord{LayoutVersion: desired.Version, Updates: updates}
	if !redo.Slot.IsZero() {
		panic("sqltable: insert: redo record slot must be null before insert")
	}
	t.StageWrite(redo)

	slot := desired.Table.Insert(t, full)
	redo.Slot = slot
	return slot, nil
}

// Update applies values (aligned 1:1 with init.Oids) to the tuple at
// slot, against vd, the caller's desired version. If the tuple's own
// version is not vd, the row is migrated forward to vd as part of the
// update (a "migrate-update"): its full current image is read, the new
// column values are laid on top, the old slot is deleted, and a new slot
// is inserted at vd. If StrictCrossVersionUpdate is set and the update
// writes a column absent from the tuple's own version, the update is
// rejected instead of migrating, since the tuple's own version never
// physically had storage for that column and there is no defined undo
// for a write to a column that did not yet exist.
//
// It returns the tuple's slot after the update (equal to slot unless a
// migration happened), whether the update applied, and an error only for
// non-MVCC failures. A false return with a nil error means the
// caller should treat this as a normal MVCC failure and retry.
func (st *SqlTable) Update(t *txn.TransactionContext, vd sql.LayoutVersion, slot storage.TupleSlot, init Initializer, values []sql.Value) (storage.TupleSlot, bool, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return storage.TupleSlot{}, false, fmt.Errorf("sqltable: update: unknown layout version %d", vd)
	}

	tuple, ok := st.registry.Get(slot.LayoutVersion)
	if !ok {
		return storage.TupleSlot{}, false, fmt.Errorf("sqltable: update: unknown layout version %d", slot.LayoutVersion)
	}
	if tuple.Version > desired.Version {
		panic(fmt.Sprintf("sqltable: update: tuple version %d is newer than desired version %d", tuple.Version, desired.Version))
	}

	ids, err := init.ColumnIds(desired)
	if err != nil {
		return storage.TupleSlot{}, false, err
	}
	if len(values) != len(ids) {
		return storage.TupleSlot{}, false, fmt.Errorf(
			"sqltable: update: got %d values for %d columns", len(values), len(ids))
	}

	updates := make([]sql.ColumnUpdate, len(ids))
	for i, id := range ids {
		updates[i] = sql.ColumnUpdate{ColumnId: id, Value: values[i]}
	}

	if tuple.Version == desired.Version {
		t.StageWrite(&txn.RedoRecord{Slot: slot, LayoutVersion: desired.Version, Updates: updates})
		if !tuple.Table.Update(t, slot, updates) {
			t.SetMustAbort()
			return storage.TupleSlot{}, false, nil
		}
		return slot, true, nil
	}

	if st.strict && !columnsShared(ids, tuple, desired) {
		return storage.TupleSlot{}, false, fmt.Errorf(
			"sqltable: update: cross-version update touches a column absent from tuple version %d; retry against version %d",
			tuple.Version, desired.Version)
	}

	return st.migrateUpdate(t, vd, slot, tuple, desired, ids, values, updates)
}

// migrateUpdate reads the tuple's full current image forward to desired,
// overlays the new column values, deletes the old physical slot, and
// inserts the merged row as a new tuple under desired.
func (st *SqlTable) migrateUpdate(t *txn.TransactionContext, vd sql.LayoutVersion, slot storage.TupleSlot, tuple, desired *version.DataTableVersion, ids []sql.ColId, values []sql.Value, updates []sql.ColumnUpdate) (storage.TupleSlot, bool, error) {
	allIds := make([]sql.ColId, 0, desired.Layout.NumColumns())
	for id := sql.ColId(sql.NumReservedColumns); int(id) < desired.Layout.NumColumns(); id++ {
		allIds = append(allIds, id)
	}
	full := storage.NewProjectedRow(allIds)

	found, err := st.Select(t, vd, slot, full)
	if err != nil {
		return storage.TupleSlot{}, false, err
	}
	if !found {
		t.SetMustAbort()
		return storage.TupleSlot{}, false, nil
	}

	fullValues := make([]sql.Value, desired.Layout.NumColumns())
	for i, id := range allIds {
		fullValues[id] = full.Value(i)
	}
	for i, id := range ids {
		fullValues[id] = values[i]
	}

	redo := &txn.RedoRecord{LayoutVersion: desired.Version, Updates: updates}
	t.StageWrite(redo)

	if !tuple.Table.Delete(t, slot) {
		t.SetMustAbort()
		return storage.TupleSlot{}, false, nil
	}
	t.StageDelete(slot)

	newSlot := desired.Table.Insert(t, fullValues)
	redo.Slot = newSlot
	return newSlot, true, nil
}

func columnsShared(ids []sql.ColId, tuple, desired *version.DataTableVersion) bool {
	for _, id := range ids {
		oid, ok := desired.IdToOid[id]
		if !ok {
			return false
		}
		if _, ok := tuple.OidToId[oid]; !ok {
			return false
		}
	}
	return true
}

// Delete removes the tuple at slot, addressed to its own version.
func (st *SqlTable) Delete(t *txn.TransactionContext, slot storage.TupleSlot) (bool, error) {
	tuple, ok := st.registry.Get(slot.LayoutVersion)
	if !ok {
		return false, fmt.Errorf("sqltable: delete: unknown layout version %d", slot.LayoutVersion)
	}
	t.StageDelete(slot)
	if !tuple.Table.Delete(t, slot) {
		t.SetMustAbort()
		return false, nil
	}
	return true, nil
}

// UpdateSchema applies cmd to the table's current schema and registers
// the result as a new version, returning the version it was assigned.
// Concurrent callers serialize on the table's lock, so of two
// conflicting alterations (for example, two DropColumn calls for the
// same column without IfExists), exactly one observes the column still
// present in latest and succeeds; the other's Apply fails against the
// schema the first one just produced.
func (st *SqlTable) UpdateSchema(cmd catalog.AlterCmd) (sql.LayoutVersion, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	latest := st.registry.Latest()
	next, err := catalog.Apply(latest.Schema, cmd)
	if err != nil {
		return 0, err
	}
	dtv, err := st.registry.Register(next)
	if err != nil {
		return 0, err
	}
	return dtv.Version, nil
}
