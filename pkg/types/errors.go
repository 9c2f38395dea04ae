package types

import "errors"

// Lookup and data errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidID         = errors.New("invalid map ID")
	ErrInvalidData       = errors.New("invalid data")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidDimensions = errors.New("map dimensions must be positive")
	ErrMapNotFound       = errors.New("map not found")
	ErrDuplicateMap      = errors.New("map already exists")
)

// Link registry errors. ErrShapeMismatch and ErrInvalidState fail the call
// that produced them; ErrStaleLink only ever describes a dropped entry.
var (
	ErrShapeMismatch = errors.New("boundary sizes do not match")
	ErrInvalidState  = errors.New("map registry is destroyed")
	ErrStaleLink     = errors.New("stale link removed")
)

// Teleport evaluation errors. These never abort a movement; they explain
// why a teleport was skipped.
var (
	ErrShapeTooLarge            = errors.New("object does not fit inside the target map")
	ErrAxisChangeRequiresSquare = errors.New("axis-changing teleport requires a square object")
	ErrAlreadyRelocated         = errors.New("relocation already performed")
	ErrRelocationFailed         = errors.New("relocation failed")
)
