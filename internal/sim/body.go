package sim

import (
	"fmt"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

var _ types.Entity = (*Body)(nil)

// Body is a rectangular object on the grid of one map.
type Body struct {
	types.TeleportFlag

	id          string
	world       *World
	mapID       types.MapID
	x, y        int
	w, h        int
	orientation types.Direction
	moving      types.Direction
}

func (b *Body) ID() string                       { return b.id }
func (b *Body) Map() types.MapID                 { return b.mapID }
func (b *Body) X() int                           { return b.x }
func (b *Body) Y() int                           { return b.y }
func (b *Body) Xf() int                          { return b.x + b.w - 1 }
func (b *Body) Yf() int                          { return b.y + b.h - 1 }
func (b *Body) Width() int                       { return b.w }
func (b *Body) Height() int                      { return b.h }
func (b *Body) Orientation() types.Direction     { return b.orientation }
func (b *Body) SetOrientation(d types.Direction) { b.orientation = d }

// Moving returns the direction of the pending move, or the zero Direction.
func (b *Body) Moving() types.Direction { return b.moving }

// Detached reports whether the body is off every map, as it is while a
// delayed relocation is pending.
func (b *Body) Detached() bool { return b.mapID == "" }

// Detach removes the body from its map. Pending movement is kept until
// CancelMovement.
func (b *Body) Detach() { b.mapID = "" }

// Attach places the body on map m with its origin at (x, y). The whole
// bounding box must lie inside the map.
func (b *Body) Attach(m types.MapID, x, y int) error {
	r, ok := b.world.atlas.Registry(m)
	if !ok {
		return fmt.Errorf("attach %s: map %s: %w", b.id, m, types.ErrMapNotFound)
	}
	if x < 0 || y < 0 || x+b.w > r.Width() || y+b.h > r.Height() {
		return fmt.Errorf("attach %s to %s at (%d,%d): %w", b.id, m, x, y, ErrOutOfBounds)
	}
	b.mapID, b.x, b.y = m, x, y
	return nil
}

func (b *Body) CancelMovement() { b.moving = 0 }

// StartMovement queues a one-cell move for the next World.Step. A detached
// body cannot move.
func (b *Body) StartMovement(d types.Direction) bool {
	if b.Detached() || !d.Valid() {
		return false
	}
	b.moving = d
	b.orientation = d
	return true
}
