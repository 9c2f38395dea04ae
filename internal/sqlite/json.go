// JSON record structures for the data files. Each line of a JSONL file is
// one of these records.
package sqlite

// JSONL file names in DataDir.
const (
	mapsJSONL  = "maps.jsonl"
	linksJSONL = "links.jsonl"
)

// jsonlFiles lists every JSONL file the backend owns.
var jsonlFiles = []string{mapsJSONL, linksJSONL}

// mapJSON represents a map in maps.jsonl.
type mapJSON struct {
	MapID  string `json:"map_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// linkJSON represents a link table entry in links.jsonl. Sides are stored
// by name ("up", "down", "left", "right").
type linkJSON struct {
	FromMap  string `json:"from_map"`
	FromSide string `json:"from_side"`
	ToMap    string `json:"to_map"`
	ToSide   string `json:"to_side"`
}
