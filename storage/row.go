package storage

import (
	"fmt"

	"github.com/mahodb/sqltable/sql"
)

// AttrSizeOverride records, for a header slot whose physical size differs
// between the tuple's version and the desired version, the size the read
// should be truncated or zero-extended to. Built by the Projection
// Translator and consumed by DataTable.Select/DataTable.IncrementalScan.
type AttrSizeOverride map[sql.ColId]sql.AttrSize

// ProjectedRow is a caller-supplied output buffer for a single tuple: a
// mutable column-id header naming the columns the caller expects, plus a
// payload slot per header entry. The header is rewritten in place while
// translating between schema versions and must be restored before
// returning control to the caller.
type ProjectedRow struct {
	ColumnIds []sql.ColId
	values    []sql.Value
	isNull    []bool
}

// NewProjectedRow allocates a ProjectedRow whose header is colIds. The
// slice is copied; mutating the caller's original colIds afterward has no
// effect on the ProjectedRow.
func NewProjectedRow(colIds []sql.ColId) *ProjectedRow {
	n := len(colIds)
	pr := &ProjectedRow{
		ColumnIds: make([]sql.ColId, n),
		values:    make([]sql.Value, n),
		isNull:    make([]bool, n),
	}
	copy(pr.ColumnIds, colIds)
	for i := range pr.isNull {
		pr.isNull[i] = true
	}
	return pr
}

// NumColumns returns the number of header slots.
func (pr *ProjectedRow) NumColumns() int {
	return len(pr.ColumnIds)
}

// Value returns the value at header slot i, or nil if the slot is null.
func (pr *ProjectedRow) Value(i int) sql.Value {
	if pr.isNull[i] {
		return nil
	}
	return pr.values[i]
}

// IsNull reports whether header slot i currently holds SQL NULL.
func (pr *ProjectedRow) IsNull(i int) bool {
	return pr.isNull[i]
}

// SetValue sets header slot i's value. A nil v sets the slot to NULL.
func (pr *ProjectedRow) SetValue(i int, v sql.Value) {
	if v == nil {
		pr.isNull[i] = true
		pr.values[i] = nil
		return
	}
	pr.isNull[i] = false
	pr.values[i] = v
}

// SaveHeader returns a copy of the current header, for later restoration by
// RestoreHeader. Callers of the Projection Translator hold onto this while
// the header is temporarily rewritten into the tuple's physical version.
func (pr *ProjectedRow) SaveHeader() []sql.ColId {
	saved := make([]sql.ColId, len(pr.ColumnIds))
	copy(saved, pr.ColumnIds)
	return saved
}

// RestoreHeader overwrites the current header with saved, which must have
// the same length as the header it was saved from.
func (pr *ProjectedRow) RestoreHeader(saved []sql.ColId) {
	if len(saved) != len(pr.ColumnIds) {
		panic(fmt.Sprintf("storage: restore header: length mismatch: have %d, want %d",
			len(pr.ColumnIds), len(saved)))
	}
	copy(pr.ColumnIds, saved)
}

// ProjectedColumns is a caller-supplied output buffer for a batch of
// tuples, used by Scan: the same mutable column-id header as ProjectedRow,
// but a payload column per header entry holding up to MaxTuples values.
type ProjectedColumns struct {
	ColumnIds []sql.ColId
	MaxTuples int

	numTuples int
	values    [][]sql.Value
	isNull    [][]bool
}

// NewProjectedColumns allocates a ProjectedColumns buffer with the given
// header and tuple capacity.
func NewProjectedColumns(colIds []sql.ColId, maxTuples int) *ProjectedColumns {
	pc := &ProjectedColumns{
		ColumnIds: make([]sql.ColId, len(colIds)),
		MaxTuples: maxTuples,
		values:    make([][]sql.Value, len(colIds)),
		isNull:    make([][]bool, len(colIds)),
	}
	copy(pc.ColumnIds, colIds)
	for i := range pc.values {
		pc.values[i] = make([]sql.Value, maxTuples)
		pc.isNull[i] = make([]bool, maxTuples)
	}
	return pc
}

// NumTuples returns the number of tuples currently filled.
func (pc *ProjectedColumns) NumTuples() int {
	return pc.numTuples
}

// Full reports whether the buffer has no room for another tuple.
func (pc *ProjectedColumns) Full() bool {
	return pc.numTuples >= pc.MaxTuples
}

// Reset clears the buffer back to zero tuples without reallocating, for
// reuse across a fresh Scan call.
func (pc *ProjectedColumns) Reset() {
	pc.numTuples = 0
}

// AppendTuple reserves the next tuple slot and returns its index. It panics
// if the buffer is already full; callers must check Full first.
func (pc *ProjectedColumns) AppendTuple() int {
	if pc.Full() {
		panic("storage: projected columns: append into a full buffer")
	}
	idx := pc.numTuples
	for c := range pc.isNull {
		pc.isNull[c][idx] = true
		pc.values[c][idx] = nil
	}
	pc.numTuples++
	return idx
}

// SetValue sets column col, tuple row's value. A nil v sets the value NULL.
func (pc *ProjectedColumns) SetValue(col, row int, v sql.Value) {
	if v == nil {
		pc.isNull[col][row] = true
		pc.values[col][row] = nil
		return
	}
	pc.isNull[col][row] = false
	pc.values[col][row] = v
}

// Value returns column col, tuple row's value, or nil if null.
func (pc *ProjectedColumns) Value(col, row int) sql.Value {
	if pc.isNull[col][row] {
		return nil
	}
	return pc.values[col][row]
}

// IsNull reports whether column col, tuple row is currently null.
func (pc *ProjectedColumns) IsNull(col, row int) bool {
	return pc.isNull[col][row]
}

// SaveHeader returns a copy of the current header.
func (pc *ProjectedColumns) SaveHeader() []sql.ColId {
	saved := make([]sql.ColId, len(pc.ColumnIds))
	copy(saved, pc.ColumnIds)
	return saved
}

// RestoreHeader overwrites the current header with saved.
func (pc *ProjectedColumns) RestoreHeader(saved []sql.ColId) {
	if len(saved) != len(pc.ColumnIds) {
		panic(fmt.Sprintf("storage: restore header: length mismatch: have %d, want %d",
			len(pc.ColumnIds), len(saved)))
	}
	copy(pc.ColumnIds, saved)
}
