package sqltable

import (
	"github.com/mahodb/sqltable/catalog"
	"github.com/mahodb/sqltable/sql"
)

// AddColumn registers a new schema version with col appended, defaulting
// existing rows to col.Default (which must be constant) wherever they
// are read forward to the new version.
func (st *SqlTable) AddColumn(col catalog.Column) (sql.LayoutVersion, error) {
	return st.UpdateSchema(catalog.AddColumnCmd(col))
}

// DropColumn registers a new schema version with oid removed. Rows
// stored under older versions still have the column physically; reads
// against the new latest simply stop projecting it.
func (st *SqlTable) DropColumn(oid sql.ColOid, ifExists bool) (sql.LayoutVersion, error) {
	return st.UpdateSchema(catalog.DropColumnCmd(oid, ifExists))
}
