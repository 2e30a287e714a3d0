// Package txn implements the transaction-scoped collaborators a versioned
// table needs but does not own itself: snapshot version assignment, the
// redo buffer writes are staged into before a DataTable is touched, and
// the must-abort flag core code sets when a DataTable operation reports
// a conflict.
//
// The commit protocol here fans out to every storage.DataTable a
// transaction wrote to; it is not a true two-phase commit (a mid-fan-out
// failure leaves earlier participants committed and later ones not). A
// table backed by a single store never has to solve this; one backed by
// several concurrent schema versions does, so this is a deliberate
// simplification rather than a hidden bug.
package txn

import (
	"errors"
	"sync"

	"github.com/mahodb/sqltable/storage"
)

// TransactionContext is one SQL transaction's handle: a stable id, the
// snapshot version it reads as of, the redo buffer callers stage writes
// into, and the must-abort flag any collaborator can set to force
// Commit to fail.
type TransactionContext struct {
	mgr          *TransactionManager
	id           uint64
	startVersion uint64

	mu           sync.Mutex
	mustAbort    bool
	participants []storage.Participant

	redo *RedoBuffer
}

// ID returns the transaction's identity, stable for its lifetime.
func (t *TransactionContext) ID() uint64 {
	return t.id
}

// StartVersion returns the snapshot version reads should observe.
func (t *TransactionContext) StartVersion() uint64 {
	return t.startVersion
}

// Join registers p to receive a commit or abort callback when the
// transaction ends. Safe to call more than once with the same p.
func (t *TransactionContext) Join(p storage.Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.participants {
		if existing == p {
			return
		}
	}
	t.participants = append(t.participants, p)
}

// SetMustAbort marks the transaction as unable to commit. Called by core
// code whenever a DataTable operation reports a conflict.
func (t *TransactionContext) SetMustAbort() {
	t.mu.Lock()
	t.mustAbort = true
	t.mu.Unlock()
}

// MustAbort reports whether the transaction has been marked must-abort.
func (t *TransactionContext) MustAbort() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mustAbort
}

// Redo returns the transaction's redo buffer, allocating it on first use.
func (t *TransactionContext) Redo() *RedoBuffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.redo == nil {
		t.redo = &RedoBuffer{}
	}
	return t.redo
}

// StageWrite records an insert or update's after-image in the redo
// buffer before the caller applies it to a DataTable.
func (t *TransactionContext) StageWrite(r *RedoRecord) {
	t.Redo().stageWrite(r)
}

// StageDelete records a delete's target slot in the redo buffer.
func (t *TransactionContext) StageDelete(slot storage.TupleSlot) {
	t.Redo().stageDelete(slot)
}

// Commit fans out to every DataTable the transaction touched. If the
// transaction is marked must-abort, Commit rolls back and returns an
// error instead.
func (t *TransactionContext) Commit() error {
	t.mu.Lock()
	if t.mustAbort {
		participants := t.participants
		t.mu.Unlock()
		abortAll(t.id, participants)
		return errors.New("txn: transaction marked must-abort")
	}
	participants := t.participants
	t.mu.Unlock()

	commitVersion := t.mgr.nextCommitVersion()
	for _, p := range participants {
		if err := p.CommitParticipant(t.id, commitVersion); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards every DataTable write the transaction staged.
func (t *TransactionContext) Rollback() {
	t.mu.Lock()
	participants := t.participants
	t.mu.Unlock()
	abortAll(t.id, participants)
}

func abortAll(txnID uint64, participants []storage.Participant) {
	for _, p := range participants {
		p.AbortParticipant(txnID)
	}
}

// TransactionManager assigns transaction ids from one counter and
// snapshot/commit versions from a separate monotonic clock shared by
// every table a transaction touches, so a version stamped in one
// DataTable is comparable to a version stamped in another.
type TransactionManager struct {
	mu          sync.Mutex
	nextID      uint64
	nextVersion uint64
}

// NewTransactionManager returns a manager with its version clock started
// at 1, so the zero value of a snapshot version is reserved to mean
// "before anything was ever committed".
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{nextVersion: 1}
}

// Begin starts a new transaction with a fresh snapshot version.
func (m *TransactionManager) Begin() *TransactionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return &TransactionContext{
		mgr:          m,
		id:           m.nextID,
		startVersion: m.nextVersion,
	}
}

func (m *TransactionManager) nextCommitVersion() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextVersion++
	return m.nextVersion
}
