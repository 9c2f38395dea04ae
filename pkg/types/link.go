package types

// MapID identifies a map and its link registry within an atlas.
type MapID string

// SideLink is the value half of a link table entry: the map to teleport to
// and the edge of that map where arriving entities appear.
type SideLink struct {
	Target     MapID     `json:"target" yaml:"target"`
	TargetSide Direction `json:"target_side" yaml:"target_side"`
}

// Link is a directed edge of the map graph, one per (FromMap, FromSide).
type Link struct {
	FromMap  MapID     `json:"from_map" yaml:"from_map"`
	FromSide Direction `json:"from_side" yaml:"from_side"`
	ToMap    MapID     `json:"to_map" yaml:"to_map"`
	ToSide   Direction `json:"to_side" yaml:"to_side"`
}

// Reverse returns the link that would lead back from the target edge.
func (l Link) Reverse() Link {
	return Link{FromMap: l.ToMap, FromSide: l.ToSide, ToMap: l.FromMap, ToSide: l.FromSide}
}

// MapRecord is the stored shape of a map: its identity and boundary sizes.
type MapRecord struct {
	ID     MapID `json:"map_id" yaml:"id"`
	Width  int   `json:"width" yaml:"width"`
	Height int   `json:"height" yaml:"height"`
}

// Validate checks that the record has positive dimensions.
func (m MapRecord) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return ErrInvalidDimensions
	}
	return nil
}
