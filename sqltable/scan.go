package sqltable

import (
	"fmt"

	"github.com/mahodb/sqltable/project"
	"github.com/mahodb/sqltable/sql"
	"github.com/mahodb/sqltable/storage"
	"github.com/mahodb/sqltable/txn"
	"github.com/mahodb/sqltable/version"
)

// ScanIterator walks every schema version up to its desired version's
// DataTable in turn, oldest first, so a single Scan call surfaces every
// live tuple regardless of which version it was physically inserted
// under.
type ScanIterator struct {
	versions []*version.DataTableVersion
	vd       sql.LayoutVersion
	vi       int
	slot     storage.SlotIterator
}

// Done reports whether the scan has visited every version's DataTable.
func (it *ScanIterator) Done() bool {
	return it.vi >= len(it.versions)
}

// BeginScan starts a new cross-version scan of the table bounded by vd,
// the caller's desired version. Versions registered after vd (by a
// schema change concurrent with the scanning transaction) are not
// visited, the same as a Select or Update pinned to vd would not see
// them.
func (st *SqlTable) BeginScan(vd sql.LayoutVersion) (*ScanIterator, error) {
	desired, ok := st.registry.Get(vd)
	if !ok {
		return nil, fmt.Errorf("sqltable: scan: unknown layout version %d", vd)
	}

	all := st.registry.All()
	versions := make([]*version.DataTableVersion, 0, len(all))
	for _, dtv := range all {
		if dtv.Version > desired.Version {
			break
		}
		versions = append(versions, dtv)
	}

	it := &ScanIterator{versions: versions, vd: desired.Version}
	if len(versions) > 0 {
		it.slot = versions[0].Table.Begin()
	}
	return it, nil
}

// Scan fills out with the next batch of tuples, translating and
// default-filling rows from older versions as it crosses into them. It
// clears out first; callers loop calling Scan until it.Done().
func (st *SqlTable) Scan(t *txn.TransactionContext, it *ScanIterator, out *storage.ProjectedColumns) error {
	desired, ok := st.registry.Get(it.vd)
	if !ok {
		return fmt.Errorf("sqltable: scan: unknown layout version %d", it.vd)
	}
	out.Reset()

	for !out.Full() && it.vi < len(it.versions) {
		tuple := it.versions[it.vi]

		if tuple.Version == desired.Version {
			tuple.Table.IncrementalScan(t, &it.slot, out, nil)
		} else {
			saved := out.SaveHeader()
			tr := project.Translate(out.ColumnIds, tuple, desired)
			before := out.NumTuples()
			tuple.Table.IncrementalScan(t, &it.slot, out, tr.Overrides)
			for row := before; row < out.NumTuples(); row++ {
				if err := project.FillColumns(st.registry, tuple, desired, tr.Missing, saved, out, row); err != nil {
					out.RestoreHeader(saved)
					return err
				}
			}
			out.RestoreHeader(saved)
		}

		if it.slot.Done() {
			it.vi++
			if it.vi < len(it.versions) {
				it.slot = it.versions[it.vi].Table.Begin()
			}
		}
	}
	return nil
}
