package storage

import (
	"testing"

	"github.com/mahodb/sqltable/sql"
)

// fakeTxn is a minimal storage.Txn for exercising DataTable directly,
// without pulling in the txn package (which itself depends on storage).
type fakeTxn struct {
	id     uint64
	startV uint64
	joined []Participant
}

func (f *fakeTxn) ID() uint64           { return f.id }
func (f *fakeTxn) StartVersion() uint64 { return f.startV }
func (f *fakeTxn) Join(p Participant)   { f.joined = append(f.joined, p) }

func testLayout(t *testing.T) BlockLayout {
	t.Helper()
	return BlockLayout{attrSizes: []sql.AttrSize{sql.Size8, sql.Size8, sql.VarlenSize}}
}

func TestDataTableInsertSelectVisibleAfterCommit(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)

	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(42), sql.StringValue("ada")})
	if err := dt.CommitParticipant(writer.id, 2); err != nil {
		t.Fatalf("CommitParticipant: %s", err)
	}

	reader := &fakeTxn{id: 2, startV: 5}
	out := NewProjectedRow([]sql.ColId{1, 2})
	found := dt.Select(reader, slot, out, nil)
	if !found {
		t.Fatal("Select: row not found after commit")
	}
	if out.Value(0) != sql.Int64Value(42) {
		t.Errorf("Value(0) = %v, want 42", out.Value(0))
	}
	if out.Value(1) != sql.StringValue("ada") {
		t.Errorf("Value(1) = %v, want ada", out.Value(1))
	}
}

func TestDataTableInsertNotVisibleBeforeCommit(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)

	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(1), nil})

	other := &fakeTxn{id: 2, startV: 1}
	out := NewProjectedRow([]sql.ColId{1})
	if dt.Select(other, slot, out, nil) {
		t.Fatal("Select: uncommitted insert visible to a different transaction")
	}
}

func TestDataTableReadYourOwnWrite(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)
	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(1), nil})

	out := NewProjectedRow([]sql.ColId{1})
	if !dt.Select(writer, slot, out, nil) {
		t.Fatal("Select: transaction cannot see its own uncommitted insert")
	}
}

func TestDataTableUpdateAndDelete(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)
	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(1), nil})
	if err := dt.CommitParticipant(writer.id, 2); err != nil {
		t.Fatal(err)
	}

	updater := &fakeTxn{id: 2, startV: 3}
	if !dt.Update(updater, slot, []sql.ColumnUpdate{{ColumnId: 1, Value: sql.Int64Value(9)}}) {
		t.Fatal("Update: expected success")
	}
	if err := dt.CommitParticipant(updater.id, 4); err != nil {
		t.Fatal(err)
	}

	reader := &fakeTxn{id: 3, startV: 5}
	out := NewProjectedRow([]sql.ColId{1})
	dt.Select(reader, slot, out, nil)
	if out.Value(0) != sql.Int64Value(9) {
		t.Errorf("after update, Value(0) = %v, want 9", out.Value(0))
	}

	deleter := &fakeTxn{id: 4, startV: 6}
	if !dt.Delete(deleter, slot) {
		t.Fatal("Delete: expected success")
	}
	if err := dt.CommitParticipant(deleter.id, 7); err != nil {
		t.Fatal(err)
	}

	reader2 := &fakeTxn{id: 5, startV: 8}
	if dt.Select(reader2, slot, NewProjectedRow([]sql.ColId{1}), nil) {
		t.Fatal("Select: row still visible after delete commit")
	}
}

func TestDataTableWriteConflict(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)
	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(1), nil})
	if err := dt.CommitParticipant(writer.id, 2); err != nil {
		t.Fatal(err)
	}

	a := &fakeTxn{id: 2, startV: 3}
	b := &fakeTxn{id: 3, startV: 3}
	// Touch b first so its snapshot is taken before a commits, simulating
	// two transactions that started concurrently.
	dt.Select(b, slot, NewProjectedRow([]sql.ColId{1}), nil)

	if !dt.Update(a, slot, []sql.ColumnUpdate{{ColumnId: 1, Value: sql.Int64Value(2)}}) {
		t.Fatal("Update a: expected success")
	}
	if err := dt.CommitParticipant(a.id, 4); err != nil {
		t.Fatal(err)
	}

	// b started before a committed but tries to update the same row after
	// a's commit: this must be rejected as a write-write conflict.
	if dt.Update(b, slot, []sql.ColumnUpdate{{ColumnId: 1, Value: sql.Int64Value(3)}}) {
		t.Fatal("Update b: expected write-write conflict to be detected")
	}
}

func TestDataTableAbortDiscardsWrites(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)
	writer := &fakeTxn{id: 1, startV: 1}
	slot := dt.Insert(writer, []sql.Value{nil, sql.Int64Value(1), nil})
	dt.AbortParticipant(writer.id)

	reader := &fakeTxn{id: 2, startV: 2}
	if dt.Select(reader, slot, NewProjectedRow([]sql.ColId{1}), nil) {
		t.Fatal("Select: aborted insert should never become visible")
	}
}

func TestDataTableIncrementalScan(t *testing.T) {
	dt := NewDataTable(1, testLayout(t), 0)
	writer := &fakeTxn{id: 1, startV: 1}
	for i := int64(0); i < 5; i++ {
		dt.Insert(writer, []sql.Value{nil, sql.Int64Value(i), nil})
	}
	if err := dt.CommitParticipant(writer.id, 2); err != nil {
		t.Fatal(err)
	}

	reader := &fakeTxn{id: 2, startV: 3}
	it := dt.Begin()
	out := NewProjectedColumns([]sql.ColId{1}, 2)

	var got []int64
	for !it.Done() {
		out.Reset()
		dt.IncrementalScan(reader, &it, out, nil)
		for row := 0; row < out.NumTuples(); row++ {
			got = append(got, int64(out.Value(0, row).(sql.Int64Value)))
		}
	}
	if len(got) != 5 {
		t.Fatalf("scanned %d rows, want 5", len(got))
	}
	for i, v := range got {
		if v != int64(i) {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
}
