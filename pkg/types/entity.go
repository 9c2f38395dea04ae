package types

// Entity is what the movement host must expose for an object to take part
// in neighbour teleports. Coordinates are grid cells; Y grows upward, so
// the top edge of a map is row Height-1.
type Entity interface {
	// Map returns the map the entity is attached to, or "" when detached.
	Map() MapID

	X() int
	Y() int
	// Xf and Yf are the far corner: X+Width-1 and Y+Height-1.
	Xf() int
	Yf() int
	Width() int
	Height() int

	Orientation() Direction
	SetOrientation(d Direction)

	// Teleportable reports whether the entity may be moved across links.
	Teleportable() bool

	// Detach removes the entity from its current map.
	Detach()
	// Attach places the entity on a map at (x, y).
	Attach(m MapID, x, y int) error
	// CancelMovement drops any movement still in flight.
	CancelMovement()
	// StartMovement begins a one-cell move. It returns false when the
	// host refuses the move.
	StartMovement(d Direction) bool
}

// Movement-finished phases. Listeners run in the before phase; teleports
// are evaluated only in the after phase.
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// MovementFinished is emitted by the host once per completed movement and
// phase. Direction is the zero value when no movement was involved.
type MovementFinished struct {
	Entity    Entity
	Direction Direction
	Phase     string
}
