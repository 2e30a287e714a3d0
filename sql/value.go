// Package sql defines the value and type primitives shared by the catalog,
// storage, and table layers: column identity (ColOid, ColId), runtime values,
// and the small set of physical attribute sizes the layout builder buckets on.
package sql

// Value is anything that can be stored in a column. Concrete implementations
// are BoolValue, Int64Value, Float64Value, StringValue, and BytesValue; a nil
// Value represents SQL NULL.
type Value interface{}

// BoolValue is a boolean column value.
type BoolValue bool

// Int64Value is an integer column value, used for TinyInt, SmallInt,
// Integer, and BigInt logical types alike; DataType determines the physical
// attribute size, not the Go type of the value.
type Int64Value int64

// Float64Value is a floating point column value.
type Float64Value float64

// StringValue is a variable-length text column value.
type StringValue string

// BytesValue is a variable-length binary column value.
type BytesValue []byte
