package sql

// ColumnUpdate is a single column's after-image within a write delta,
// expressed in physical col_ids (the caller's desired version by
// convention).
type ColumnUpdate struct {
	ColumnId ColId
	Value    Value
}
