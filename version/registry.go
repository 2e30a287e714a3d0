// Package version implements the Version Registry: a bounded,
// append-only, monotonically increasing table of DataTableVersions, each
// pairing a logical Schema with the physical layout and DataTable that
// materializes it, generalized to a slice of stores indexed by schema
// generation.
package version

import (
	"fmt"
	"sync"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
)

// DataTableVersion is one physical generation of a table: the logical
// schema as of that generation, the layout built from it, the oid<->id
// maps and default table the builder produced alongside it, and the
// DataTable that actually stores tuples under this generation's layout.
type DataTableVersion struct {
	Version  sql.LayoutVersion
	Schema   catalog.Schema
	Layout   storage.BlockLayout
	OidToId  map[sql.ColOid]sql.ColId
	IdToOid  map[sql.ColId]sql.ColOid
	Defaults map[sql.ColOid]catalog.Expr
	Table    *storage.DataTable
}

// Registry holds every DataTableVersion a logical table has ever had,
// in the order they were created. Registration is append-only: entries
// are never removed or reordered, and Version numbers are dense and
// increasing starting at 0.
type Registry struct {
	mu       sync.RWMutex
	versions []*DataTableVersion
	maxCount int
}

// DefaultMaxVersions bounds a Registry when NewRegistry is given 0,
// chosen well under sql.MaxLayoutVersion's 256-value ceiling so a
// runaway schema-churn loop is caught long before LayoutVersion would
// wrap.
const DefaultMaxVersions = 64

// NewRegistry returns an empty Registry that will refuse to register
// more than maxVersions generations. A maxVersions of 0 selects
// DefaultMaxVersions; values above sql.MaxLayoutVersion+1 (256) are
// clamped to it, since LayoutVersion cannot address more generations
// than that.
func NewRegistry(maxVersions int) *Registry {
	if maxVersions <= 0 {
		maxVersions = DefaultMaxVersions
	}
	if maxVersions > int(sql.MaxLayoutVersion)+1 {
		maxVersions = int(sql.MaxLayoutVersion) + 1
	}
	return &Registry{maxCount: maxVersions}
}

// Register builds the physical layout for schema and appends a new
// DataTableVersion for it, backed by a fresh, empty DataTable. It
// returns an error if the registry has already reached its configured
// bound.
func (r *Registry) Register(schema catalog.Schema) (*DataTableVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.versions) >= r.maxCount {
		return nil, fmt.Errorf("version: registry: at capacity (%d versions)", r.maxCount)
	}

	built, err := storage.BuildLayout(schema)
	if err != nil {
		return nil, err
	}

	v := sql.LayoutVersion(len(r.versions))
	dtv := &DataTableVersion{
		Version:  v,
		Schema:   schema.Clone(),
		Layout:   built.Layout,
		OidToId:  built.OidToId,
		IdToOid:  built.IdToOid,
		Defaults: built.Defaults,
		Table:    storage.NewDataTable(storage.BlockId(v), built.Layout, v),
	}
	r.versions = append(r.versions, dtv)
	return dtv, nil
}

// Get returns the DataTableVersion for v, or false if v has never been
// registered.
func (r *Registry) Get(v sql.LayoutVersion) (*DataTableVersion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(v) >= len(r.versions) {
		return nil, false
	}
	return r.versions[v], true
}

// Latest returns the most recently registered version. It panics if the
// registry is empty; callers always register an initial version before
// exposing a Registry to readers.
func (r *Registry) Latest() *DataTableVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.versions) == 0 {
		panic("version: registry: no versions registered")
	}
	return r.versions[len(r.versions)-1]
}

// Count returns the number of registered versions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.versions)
}

// Between returns every DataTableVersion strictly after from, up to and
// including to, in ascending version order. It is used by the
// default-value filler to walk forward from a tuple's version toward the
// desired version looking for the nearest ADD COLUMN default.
func (r *Registry) Between(from, to sql.LayoutVersion) []*DataTableVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(to) >= len(r.versions) {
		to = sql.LayoutVersion(len(r.versions) - 1)
	}
	if from >= to {
		return nil
	}
	var out []*DataTableVersion
	for v := from + 1; v <= to; v++ {
		out = append(out, r.versions[v])
	}
	return out
}

// All returns every registered version in ascending order, used by
// cross-version Scan to visit each generation's DataTable in turn.
func (r *Registry) All() []*DataTableVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*DataTableVersion, len(r.versions))
	copy(out, r.versions)
	return out
}
