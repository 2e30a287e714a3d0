package sqltable

import (
	"fmt"
	"sort"

	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
	"github.com/mahodb/sqltable/version"
)

// Initializer names a projection by column oid, in a fixed order. It
// resolves to physical col_ids fresh against whichever DataTableVersion
// it is bound to, which is what lets one Initializer serve reads and
// writes across schema versions transparently instead of pinning a
// caller to the version it was constructed under.
type Initializer struct {
	Oids []sql.ColOid
}

// InitializerForProjectedRow returns an Initializer over oids, suitable
// for a single-tuple Select, Insert, or Update.
func InitializerForProjectedRow(oids []sql.ColOid) Initializer {
	return newInitializer(oids)
}

// InitializerForProjectedColumns returns an Initializer over oids,
// suitable for Scan.
func InitializerForProjectedColumns(oids []sql.ColOid) Initializer {
	return newInitializer(oids)
}

func newInitializer(oids []sql.ColOid) Initializer {
	seen := make(map[sql.ColOid]bool, len(oids))
	for _, oid := range oids {
		if seen[oid] {
			panic(fmt.Sprintf("sqltable: duplicate column oid %d in initializer", oid))
		}
		seen[oid] = true
	}
	cp := make([]sql.ColOid, len(oids))
	copy(cp, oids)
	return Initializer{Oids: cp}
}

// ColumnIds resolves the initializer's oids to dtv's physical col_ids,
// in the same order as Oids.
func (init Initializer) ColumnIds(dtv *version.DataTableVersion) ([]sql.ColId, error) {
	ids := make([]sql.ColId, len(init.Oids))
	for i, oid := range init.Oids {
		id, ok := dtv.OidToId[oid]
		if !ok {
			return nil, fmt.Errorf("sqltable: column oid %d not present in version %d", oid, dtv.Version)
		}
		ids[i] = id
	}
	return ids, nil
}

// NewProjectedRow builds an output buffer for a single tuple, headered
// for dtv.
func (init Initializer) NewProjectedRow(dtv *version.DataTableVersion) (*storage.ProjectedRow, error) {
	ids, err := init.ColumnIds(dtv)
	if err != nil {
		return nil, err
	}
	return storage.NewProjectedRow(ids), nil
}

// NewProjectedColumns builds an output buffer for a batch of tuples,
// headered for dtv.
func (init Initializer) NewProjectedColumns(dtv *version.DataTableVersion, maxTuples int) (*storage.ProjectedColumns, error) {
	ids, err := init.ColumnIds(dtv)
	if err != nil {
		return nil, err
	}
	return storage.NewProjectedColumns(ids, maxTuples), nil
}

// ProjectionMapForOids resolves oids to their physical col_ids under dtv
// and returns the index within a header built in ascending col_id order
// at which each oid's value lives, matching the column order an
// Initializer's ColumnIds would resolve for the same version if its
// oids were already sorted by col_id. It exists so a caller building an
// Initializer from a set that was reordered or deduplicated elsewhere
// can still look values up by oid rather than position.
//
// It returns an error if any oid is not present in dtv's oid-to-id map,
// which is also how a caller checks that a dropped column's oid no
// longer resolves at a given version.
func ProjectionMapForOids(oids []sql.ColOid, dtv *version.DataTableVersion) (map[sql.ColOid]int, error) {
	ids := make([]sql.ColId, len(oids))
	for i, oid := range oids {
		id, ok := dtv.OidToId[oid]
		if !ok {
			return nil, fmt.Errorf("sqltable: column oid %d not present in version %d", oid, dtv.Version)
		}
		ids[i] = id
	}

	order := make([]int, len(oids))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ids[order[a]] < ids[order[b]] })

	m := make(map[sql.ColOid]int, len(oids))
	for rank, i := range order {
		m[oids[i]] = rank
	}
	return m, nil
}
