package neighbour

import "github.com/mesh-intelligence/atlas/pkg/types"

// sidePair keys the attachment table: the side the entity left through and
// the side of the target map it arrives at.
type sidePair struct {
	from, to types.Direction
}

// placement holds the inputs of one attachment computation.
type placement struct {
	x, y   int // entity origin on the source map
	w, h   int // entity size
	tw, th int // target map size
}

type attachFunc func(p placement) (x, y int)

// attachments maps every ordered pair of distinct sides to the position of
// the entity on the target map. The coordinate across the arrival edge pins
// the entity flush against it; the coordinate along the edge carries the
// offset from the source edge, mirrored where the two edges read in
// opposite directions.
var attachments = map[sidePair]attachFunc{
	{types.Down, types.Up}: func(p placement) (int, int) {
		return p.x, p.th - p.h
	},
	{types.Down, types.Left}: func(p placement) (int, int) {
		return 0, p.x
	},
	{types.Down, types.Right}: func(p placement) (int, int) {
		return p.tw - p.w, p.th - p.x - p.h
	},
	{types.Left, types.Up}: func(p placement) (int, int) {
		return p.tw - p.w - p.y, p.th - p.h
	},
	{types.Left, types.Right}: func(p placement) (int, int) {
		return p.tw - p.w, p.y
	},
	{types.Left, types.Down}: func(p placement) (int, int) {
		return p.y, 0
	},
	{types.Right, types.Up}: func(p placement) (int, int) {
		return p.y, p.th - p.h
	},
	{types.Right, types.Left}: func(p placement) (int, int) {
		return 0, p.y
	},
	{types.Right, types.Down}: func(p placement) (int, int) {
		return p.tw - p.w - p.y, 0
	},
	{types.Up, types.Left}: func(p placement) (int, int) {
		return 0, p.th - p.h - p.x
	},
	{types.Up, types.Right}: func(p placement) (int, int) {
		return p.tw - p.w, p.x
	},
	{types.Up, types.Down}: func(p placement) (int, int) {
		return p.x, 0
	},
}

// ComputeAttachment returns the origin an entity of size objW x objH at
// (objX, objY) takes on a targetW x targetH map after leaving through side
// from and arriving at side to. When from equals to the position is kept
// as is. ok is false only when a direction is invalid.
func ComputeAttachment(objX, objY, objW, objH, targetW, targetH int, from, to types.Direction) (x, y int, ok bool) {
	if !from.Valid() || !to.Valid() {
		return 0, 0, false
	}
	if from == to {
		return objX, objY, true
	}
	fn := attachments[sidePair{from: from, to: to}]
	x, y = fn(placement{x: objX, y: objY, w: objW, h: objH, tw: targetW, th: targetH})
	return x, y, true
}

// HasCompatibleShape reports whether an objW x objH entity may cross from
// side from to side to of a targetW x targetH map. It returns
// ErrShapeTooLarge when the entity does not fit the target, and
// ErrAxisChangeRequiresSquare when the crossing turns the entity onto the
// other axis and it is not square.
func HasCompatibleShape(objW, objH, targetW, targetH int, from, to types.Direction) error {
	if objW > targetW || objH > targetH {
		return types.ErrShapeTooLarge
	}
	if !from.SameAxis(to) && objW != objH {
		return types.ErrAxisChangeRequiresSquare
	}
	return nil
}
