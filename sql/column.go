package sql

import "fmt"

// ColOid is the catalog-assigned, schema-stable logical identity of a
// column. It is unique within a logical table for the table's lifetime and
// is never reused after a drop.
type ColOid uint32

// ColId is the physical, version-local slot position of a column inside one
// BlockLayout.
type ColId uint16

const (
	// VersionPointerColumnID is the reserved system column id that carries a
	// tuple's version-chain pointer. It never appears in a user projection.
	VersionPointerColumnID ColId = 0

	// IgnoreColumnID is the sentinel col_id that marks a header slot as "not
	// present in the tuple's physical version" after projection translation.
	IgnoreColumnID ColId = 0xFFFF

	// NumReservedColumns is the number of system columns reserved at the
	// front of every BlockLayout, ahead of user columns.
	NumReservedColumns = 1
)

// DataType is the logical type of a column.
type DataType int

const (
	UnknownType DataType = iota
	BooleanType
	TinyIntType
	SmallIntType
	IntegerType
	BigIntType
	DoubleType
	StringType
	BytesType
)

func (dt DataType) String() string {
	switch dt {
	case BooleanType:
		return "BOOLEAN"
	case TinyIntType:
		return "TINYINT"
	case SmallIntType:
		return "SMALLINT"
	case IntegerType:
		return "INTEGER"
	case BigIntType:
		return "BIGINT"
	case DoubleType:
		return "DOUBLE"
	case StringType:
		return "STRING"
	case BytesType:
		return "BYTES"
	}
	return "UNKNOWN"
}

// AttrSize is a physical column slot width, in the bucket order the layout
// builder assigns col_ids in: VARLEN first, then descending fixed sizes.
type AttrSize int8

const (
	// VarlenSize is the sentinel attribute size for variable-length columns.
	// A varlen slot physically stores a fixed-width reference (offset into
	// the row's variable-length area, plus a length), never the value
	// itself, so it sorts into its own bucket ahead of the fixed sizes.
	VarlenSize AttrSize = -1
	Size8      AttrSize = 8
	Size4      AttrSize = 4
	Size2      AttrSize = 2
	Size1      AttrSize = 1
)

// varlenRefWidth is the physical byte width of a VARLEN slot's fixed-size
// reference (a uint32 offset and a uint32 length into the row's variable
// area).
const varlenRefWidth = 8

// PhysicalWidth returns the number of bytes an AttrSize occupies in a row's
// fixed-width region.
func (a AttrSize) PhysicalWidth() int {
	if a == VarlenSize {
		return varlenRefWidth
	}
	return int(a)
}

// AttrSizeBuckets is the layout builder's fixed bucketing order: VARLEN
// first, then descending fixed sizes. An AttrSize outside this set is a
// layout error.
var AttrSizeBuckets = []AttrSize{VarlenSize, Size8, Size4, Size2, Size1}

// AttrSizeOf returns the physical attribute size bucket for a logical
// DataType, or an error if the type has no defined physical representation.
func AttrSizeOf(dt DataType) (AttrSize, error) {
	switch dt {
	case BooleanType, TinyIntType:
		return Size1, nil
	case SmallIntType:
		return Size2, nil
	case IntegerType:
		return Size4, nil
	case BigIntType, DoubleType:
		return Size8, nil
	case StringType, BytesType:
		return VarlenSize, nil
	}
	return 0, fmt.Errorf("sql: unsupported column type: %s", dt)
}

// ColumnType is the full logical description of a column: its type,
// nullability, and physical attribute size (derived, but cached alongside
// so callers never need to re-derive it).
type ColumnType struct {
	Type     DataType
	Nullable bool
	Size     AttrSize
}

// ColumnTypeFor builds a ColumnType from a logical DataType, deriving the
// physical attribute size. It returns an error for an unsupported DataType,
// matching the Physical Layout Builder's fatal-layout-error contract.
func ColumnTypeFor(dt DataType, nullable bool) (ColumnType, error) {
	size, err := AttrSizeOf(dt)
	if err != nil {
		return ColumnType{}, err
	}
	return ColumnType{Type: dt, Nullable: nullable, Size: size}, nil
}
