package project

import (
	"fmt"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
	"github.com/mahodb/sqltable/version"
)

// Fill resolves every column in missing against a single output row,
// walking the registry forward from from (exclusive) to to (inclusive)
// to find the version at which each column's ADD COLUMN default was
// declared. savedHeader is the header as it stood before Translate
// rewrote it (still in to's col_id space), used to find which output
// slot each missing oid belongs in.
func Fill(reg *version.Registry, from, to *version.DataTableVersion, missing []sql.ColOid, savedHeader []sql.ColId, out *storage.ProjectedRow) error {
	if len(missing) == 0 {
		return nil
	}
	between := reg.Between(from.Version, to.Version)
	for _, oid := range missing {
		idx := indexForOid(to, savedHeader, oid)
		if idx < 0 {
			continue
		}
		val, err := nearestDefault(between, oid)
		if err != nil {
			return err
		}
		out.SetValue(idx, val)
	}
	return nil
}

// FillColumns is Fill's ProjectedColumns counterpart, filling a single
// row of a batch scan buffer.
func FillColumns(reg *version.Registry, from, to *version.DataTableVersion, missing []sql.ColOid, savedHeader []sql.ColId, out *storage.ProjectedColumns, row int) error {
	if len(missing) == 0 {
		return nil
	}
	between := reg.Between(from.Version, to.Version)
	for _, oid := range missing {
		idx := indexForOid(to, savedHeader, oid)
		if idx < 0 {
			continue
		}
		val, err := nearestDefault(between, oid)
		if err != nil {
			return err
		}
		out.SetValue(idx, row, val)
	}
	return nil
}

func nearestDefault(between []*version.DataTableVersion, oid sql.ColOid) (sql.Value, error) {
	var expr catalog.Expr
	for _, dtv := range between {
		if e, ok := dtv.Defaults[oid]; ok {
			expr = e
			break
		}
	}
	if expr == nil {
		return nil, nil
	}
	val, err := expr.Eval()
	if err != nil {
		return nil, fmt.Errorf("project: fill default for column %d: %w", oid, err)
	}
	return val, nil
}

func indexForOid(to *version.DataTableVersion, header []sql.ColId, oid sql.ColOid) int {
	for i, id := range header {
		if id == sql.IgnoreColumnID {
			continue
		}
		if o, ok := to.IdToOid[id]; ok && o == oid {
			return i
		}
	}
	return -1
}
