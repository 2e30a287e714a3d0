// Package project implements two collaborators a versioned table needs
// when a tuple's physical version differs from the version a caller
// wants to read or write against: the Projection Translator, which
// rewrites a ProjectedRow/ProjectedColumns header from the desired
// version's col_ids into a tuple's own version's col_ids in place, and
// the Default-Value Filler, which resolves the columns that
// translation could not find a physical home for.
package project

import (
	"fmt"

	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
	"github.com/mahodb/sqltable/version"
)

// Translation is what one Translate call discovers: the oids the header
// asked for that from's layout has no column for (they existed only as
// of a later ADD COLUMN, so from predates them), and the attribute-size
// overrides Select/IncrementalScan must apply when a surviving column's
// physical width differs between versions.
type Translation struct {
	Missing   []sql.ColOid
	Overrides storage.AttrSizeOverride
}

// Translate rewrites header in place from to's col_id space into from's.
// A header entry naming a column from does not have is set to
// sql.IgnoreColumnID and its oid is recorded in Missing; the caller is
// responsible for restoring the header (storage.ProjectedRow.SaveHeader
// / RestoreHeader) once it is done reading through it.
func Translate(header []sql.ColId, from, to *version.DataTableVersion) Translation {
	tr := Translation{Overrides: storage.AttrSizeOverride{}}
	for i, id := range header {
		if id == sql.IgnoreColumnID {
			continue
		}
		oid, ok := to.IdToOid[id]
		if !ok {
			panic(fmt.Sprintf("project: translate: column id %d not present in version %d", id, to.Version))
		}
		fromId, ok := from.OidToId[oid]
		if !ok {
			tr.Missing = append(tr.Missing, oid)
			header[i] = sql.IgnoreColumnID
			continue
		}
		header[i] = fromId
		if from.Layout.AttrSize(fromId) != to.Layout.AttrSize(id) {
			tr.Overrides[fromId] = to.Layout.AttrSize(id)
		}
	}
	return tr
}
