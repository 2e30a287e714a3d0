package storage

import (
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/mahodb/sqltable/sql"
)

// rowItem is a btree.Item keyed by physical row offset within one
// DataTable. A nil values slice is a tombstone: the row existed but was
// deleted. ver is the commit version at which this state became visible;
// it is compared against a transaction's snapshot version to detect
// write-write conflicts when committing a delta tree against the store's
// live tree.
type rowItem struct {
	offset uint32
	ver    uint64
	values []sql.Value
}

func (ri rowItem) Less(other btree.Item) bool {
	return ri.offset < other.(rowItem).offset
}

// txnView is one transaction's private window onto a DataTable: the
// committed tree as it stood when the transaction first touched this
// table (btree.Clone is O(1), copy-on-write), the version that snapshot
// was taken at, and a delta tree holding this transaction's own
// uncommitted writes.
type txnView struct {
	tree  *btree.BTree
	ver   uint64
	delta *btree.BTree
}

// DataTable is the MVCC row store backing a single schema version: a
// btree of committed rows plus one txnView per active transaction, a
// shared committed tree, per-transaction delta trees, and conflict
// detection at commit against the committed tree's row versions.
type DataTable struct {
	mu   sync.Mutex
	tree *btree.BTree
	ver  uint64

	block         BlockId
	layout        BlockLayout
	layoutVersion sql.LayoutVersion
	nextOffset    uint32

	views map[uint64]*txnView

	commitMu sync.Mutex
}

// NewDataTable allocates an empty DataTable backing block for the given
// physical layout and layout version.
func NewDataTable(block BlockId, layout BlockLayout, layoutVersion sql.LayoutVersion) *DataTable {
	return &DataTable{
		tree:          btree.New(32),
		block:         block,
		layout:        layout,
		layoutVersion: layoutVersion,
		views:         make(map[uint64]*txnView),
	}
}

// Layout returns the physical layout this DataTable stores rows under.
func (dt *DataTable) Layout() BlockLayout {
	return dt.layout
}

// LayoutVersion returns the schema version this DataTable belongs to.
func (dt *DataTable) LayoutVersion() sql.LayoutVersion {
	return dt.layoutVersion
}

// view returns t's private window onto dt, creating and registering one
// on first touch.
func (dt *DataTable) view(t Txn) *txnView {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	v, ok := dt.views[t.ID()]
	if !ok {
		v = &txnView{tree: dt.tree.Clone(), ver: dt.ver}
		dt.views[t.ID()] = v
		t.Join(dt)
	}
	return v
}

func (v *txnView) lookup(offset uint32) *rowItem {
	if v.delta != nil {
		if it := v.delta.Get(rowItem{offset: offset}); it != nil {
			ri := it.(rowItem)
			return &ri
		}
	}
	if it := v.tree.Get(rowItem{offset: offset}); it != nil {
		ri := it.(rowItem)
		return &ri
	}
	return nil
}

// Select copies the physical row at slot into out, reading each column
// out's header names (header slots set to sql.IgnoreColumnID are left
// untouched) and applying overrides for any column whose attribute size
// differs between the tuple's version and out's desired version. The
// header must already be in this DataTable's col_id space. It reports false if the slot has no tuple visible to t
// (never written, or deleted).
func (dt *DataTable) Select(t Txn, slot TupleSlot, out *ProjectedRow, overrides AttrSizeOverride) bool {
	v := dt.view(t)
	item := v.lookup(slot.Offset)
	if item == nil || item.values == nil {
		return false
	}
	for i, id := range out.ColumnIds {
		if id == sql.IgnoreColumnID {
			continue
		}
		out.SetValue(i, projectValue(item.values, id, overrides))
	}
	return true
}

func projectValue(values []sql.Value, id sql.ColId, overrides AttrSizeOverride) sql.Value {
	val := values[id]
	if sz, ok := overrides[id]; ok {
		val = truncateOrExtend(val, sz)
	}
	return val
}

// truncateOrExtend coerces v to fit an attribute size override. Since a
// column's type never changes once created, a surviving col_oid in
// practice always keeps the same attribute size across every version, so
// this path is defensive rather than load-bearing today.
func truncateOrExtend(v sql.Value, to sql.AttrSize) sql.Value {
	iv, ok := v.(sql.Int64Value)
	if !ok {
		return v
	}
	switch to {
	case sql.Size1:
		return sql.Int64Value(int8(iv))
	case sql.Size2:
		return sql.Int64Value(int16(iv))
	case sql.Size4:
		return sql.Int64Value(int32(iv))
	default:
		return iv
	}
}

// Insert stages a new physical row and returns the slot it will occupy
// once t commits. values must already be sized to dt.layout.NumColumns(),
// indexed by physical col_id.
func (dt *DataTable) Insert(t Txn, values []sql.Value) TupleSlot {
	v := dt.view(t)

	dt.mu.Lock()
	offset := dt.nextOffset
	dt.nextOffset++
	dt.mu.Unlock()

	cp := make([]sql.Value, len(values))
	copy(cp, values)
	if v.delta == nil {
		v.delta = btree.New(32)
	}
	v.delta.ReplaceOrInsert(rowItem{offset: offset, values: cp})

	return TupleSlot{Block: dt.block, Offset: offset, LayoutVersion: dt.layoutVersion}
}

// Update applies updates to the row at slot, staging the result in t's
// delta. It reports false if the row is not visible to t, or if a
// different transaction has committed a change to this row since t's
// snapshot was taken (write-write conflict; the caller must mark t
// must-abort on a false return).
func (dt *DataTable) Update(t Txn, slot TupleSlot, updates []sql.ColumnUpdate) bool {
	v := dt.view(t)

	if conflict := dt.conflicts(v, slot.Offset); conflict {
		return false
	}
	cur := v.lookup(slot.Offset)
	if cur == nil || cur.values == nil {
		return false
	}

	next := make([]sql.Value, len(cur.values))
	copy(next, cur.values)
	for _, u := range updates {
		next[u.ColumnId] = u.Value
	}

	if v.delta == nil {
		v.delta = btree.New(32)
	}
	v.delta.ReplaceOrInsert(rowItem{offset: slot.Offset, values: next})
	return true
}

// Delete tombstones the row at slot. Same conflict and visibility rules
// as Update.
func (dt *DataTable) Delete(t Txn, slot TupleSlot) bool {
	v := dt.view(t)

	if conflict := dt.conflicts(v, slot.Offset); conflict {
		return false
	}
	cur := v.lookup(slot.Offset)
	if cur == nil || cur.values == nil {
		return false
	}

	if v.delta == nil {
		v.delta = btree.New(32)
	}
	v.delta.ReplaceOrInsert(rowItem{offset: slot.Offset, values: nil})
	return true
}

// conflicts reports whether the row at offset has been committed to by
// another transaction since v's snapshot was taken.
func (dt *DataTable) conflicts(v *txnView, offset uint32) bool {
	dt.mu.Lock()
	item := dt.tree.Get(rowItem{offset: offset})
	dt.mu.Unlock()
	if item == nil {
		return false
	}
	return item.(rowItem).ver > v.ver
}

// CommitParticipant applies t's staged delta to the committed tree,
// stamping every written row with commitVersion. It re-validates for
// conflicts under commitMu so two transactions cannot interleave a
// check-then-apply race.
func (dt *DataTable) CommitParticipant(txnID uint64, commitVersion uint64) error {
	dt.mu.Lock()
	v, ok := dt.views[txnID]
	dt.mu.Unlock()
	if !ok || v.delta == nil {
		dt.forgetView(txnID)
		return nil
	}

	dt.commitMu.Lock()
	defer dt.commitMu.Unlock()

	var conflictErr error
	v.delta.Ascend(func(item btree.Item) bool {
		di := item.(rowItem)
		dt.mu.Lock()
		cur := dt.tree.Get(rowItem{offset: di.offset})
		dt.mu.Unlock()
		if cur != nil && cur.(rowItem).ver > v.ver {
			conflictErr = errors.New("storage: write conflict committing transaction")
			return false
		}
		return true
	})
	if conflictErr != nil {
		dt.forgetView(txnID)
		return conflictErr
	}

	dt.mu.Lock()
	v.delta.Ascend(func(item btree.Item) bool {
		di := item.(rowItem)
		di.ver = commitVersion
		dt.tree.ReplaceOrInsert(di)
		return true
	})
	if commitVersion > dt.ver {
		dt.ver = commitVersion
	}
	dt.mu.Unlock()

	dt.forgetView(txnID)
	return nil
}

// AbortParticipant discards t's delta without touching the committed
// tree.
func (dt *DataTable) AbortParticipant(txnID uint64) {
	dt.forgetView(txnID)
}

func (dt *DataTable) forgetView(txnID uint64) {
	dt.mu.Lock()
	delete(dt.views, txnID)
	dt.mu.Unlock()
}

// SlotIterator walks a DataTable's physical offsets in order, skipping
// deleted or not-yet-visible rows as IncrementalScan advances it.
type SlotIterator struct {
	Block  BlockId
	Offset uint32
	done   bool
}

// Done reports whether the iterator has reached the end of its DataTable.
func (it SlotIterator) Done() bool {
	return it.done
}

// Begin returns an iterator positioned at this DataTable's first offset.
func (dt *DataTable) Begin() SlotIterator {
	return SlotIterator{Block: dt.block, Offset: 0}
}

// IncrementalScan appends tuples to out starting at out.NumTuples(),
// advancing it, until out is full or dt has no more rows. Rows not
// visible to t (deleted, or never committed and not t's own write) are
// skipped without consuming an out slot.
func (dt *DataTable) IncrementalScan(t Txn, it *SlotIterator, out *ProjectedColumns, overrides AttrSizeOverride) {
	v := dt.view(t)

	dt.mu.Lock()
	limit := dt.nextOffset
	dt.mu.Unlock()

	for !out.Full() && it.Offset < limit {
		item := v.lookup(it.Offset)
		it.Offset++
		if item == nil || item.values == nil {
			continue
		}
		row := out.AppendTuple()
		for i, id := range out.ColumnIds {
			if id == sql.IgnoreColumnID {
				continue
			}
			out.SetValue(i, row, projectValue(item.values, id, overrides))
		}
	}
	if it.Offset >= limit {
		it.done = true
	}
}
