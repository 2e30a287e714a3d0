// Package storage implements the physical layout builder and the
// btree-backed MVCC row store that materializes it: BlockLayout,
// ProjectedRow/ProjectedColumns, TupleSlot, and DataTable.
package storage

import (
	"fmt"

	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
)

// BlockLayout is the physical, attribute-size-indexed row shape derived
// deterministically from a Schema: the same Schema always produces a
// byte-identical BlockLayout, because the builder never consults anything
// but each column's oid, its position in Schema.Columns, and its physical
// AttrSize.
type BlockLayout struct {
	attrSizes []sql.AttrSize
}

// NumColumns returns the number of physical column slots, system columns
// included.
func (bl BlockLayout) NumColumns() int {
	return len(bl.attrSizes)
}

// AttrSize returns the physical attribute size of the column at id.
func (bl BlockLayout) AttrSize(id sql.ColId) sql.AttrSize {
	return bl.attrSizes[id]
}

// RowSize returns the total number of bytes a row's fixed-width region
// occupies under this layout, not counting the variable-length area that
// VARLEN slots reference.
func (bl BlockLayout) RowSize() int {
	total := 0
	for _, sz := range bl.attrSizes {
		total += sz.PhysicalWidth()
	}
	return total
}

// Equal reports whether two BlockLayouts describe the same physical shape.
// Two schemas that differ only in default expressions must still produce
// equal layouts.
func (bl BlockLayout) Equal(other BlockLayout) bool {
	if len(bl.attrSizes) != len(other.attrSizes) {
		return false
	}
	for i, sz := range bl.attrSizes {
		if other.attrSizes[i] != sz {
			return false
		}
	}
	return true
}

// Built is everything the Physical Layout Builder produces from a Schema:
// the BlockLayout itself, the forward and reverse col_oid<->col_id maps, and
// the default-expression table (only columns with a default expression have
// an entry).
type Built struct {
	Layout   BlockLayout
	OidToId  map[sql.ColOid]sql.ColId
	IdToOid  map[sql.ColId]sql.ColOid
	Defaults map[sql.ColOid]catalog.Expr
}

// BuildLayout computes the physical layout for a logical schema. Reserved
// system columns come first (fixed at 8 bytes each, sql.NumReservedColumns
// of them), then user columns bucketed by attribute size in the fixed order
// {VARLEN, 8, 4, 2, 1}; within a bucket, columns are assigned ascending
// col_ids in schema order. This tie-break is load-bearing: it is what makes
// layout determinism (schema order in, not oid order or map-iteration
// order) hold regardless of how columns were added.
func BuildLayout(schema catalog.Schema) (Built, error) {
	if err := schema.Validate(); err != nil {
		return Built{}, err
	}

	buckets := make(map[sql.AttrSize][]catalog.Column, len(sql.AttrSizeBuckets))
	for _, col := range schema.Columns {
		size := col.Type.Size
		if !validBucket(size) {
			return Built{}, fmt.Errorf(
				"storage: layout: column %d (%s): unsupported attribute size %d", col.Oid, col.Name, size)
		}
		buckets[size] = append(buckets[size], col)
	}

	attrSizes := make([]sql.AttrSize, sql.NumReservedColumns, sql.NumReservedColumns+len(schema.Columns))
	for i := 0; i < sql.NumReservedColumns; i++ {
		attrSizes[i] = sql.Size8
	}

	oidToId := make(map[sql.ColOid]sql.ColId, len(schema.Columns))
	idToOid := make(map[sql.ColId]sql.ColOid, len(schema.Columns))
	defaults := make(map[sql.ColOid]catalog.Expr)

	nextId := sql.ColId(sql.NumReservedColumns)
	for _, bucket := range sql.AttrSizeBuckets {
		for _, col := range buckets[bucket] {
			id := nextId
			nextId++
			attrSizes = append(attrSizes, bucket)
			oidToId[col.Oid] = id
			idToOid[id] = col.Oid
			if col.Default != nil {
				defaults[col.Oid] = col.Default
			}
		}
	}

	return Built{
		Layout:   BlockLayout{attrSizes: attrSizes},
		OidToId:  oidToId,
		IdToOid:  idToOid,
		Defaults: defaults,
	}, nil
}

func validBucket(size sql.AttrSize) bool {
	for _, b := range sql.AttrSizeBuckets {
		if b == size {
			return true
		}
	}
	return false
}
