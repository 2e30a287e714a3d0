package sql

// LayoutVersion is a monotone counter naming a physical schema generation
// of one logical table. For a given table, versions are issued in order
// 0, 1, 2, ...; the counter never decreases.
type LayoutVersion uint8

// MaxLayoutVersion is the hard ceiling imposed by LayoutVersion's 8-bit
// width, independent of any configured MAX_NUM_VERSIONS bound.
const MaxLayoutVersion = LayoutVersion(255)
