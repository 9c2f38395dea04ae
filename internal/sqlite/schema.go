// Package sqlite implements the SQLite storage backend for atlases. SQLite
// is the query engine; maps.jsonl and links.jsonl in the data directory are
// the source of truth and are rewritten after every change.
package sqlite

// Schema DDL for all tables.
const (
	createMaps = `CREATE TABLE maps (
    map_id TEXT PRIMARY KEY,
    width INTEGER NOT NULL CHECK (width > 0),
    height INTEGER NOT NULL CHECK (height > 0)
);`

	// One row per (from_map, from_side): a side holds at most one link.
	// Sides are stored by name; to_map is not a foreign key because a link
	// may outlive its target until the next activation drops it.
	createLinks = `CREATE TABLE links (
    from_map TEXT NOT NULL,
    from_side TEXT NOT NULL,
    to_map TEXT NOT NULL,
    to_side TEXT NOT NULL,
    PRIMARY KEY (from_map, from_side)
);`
)

// Index DDL for common queries.
const (
	idxLinksToMap = `CREATE INDEX idx_links_to_map ON links(to_map);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMaps,
	createLinks,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxLinksToMap,
}
