package neighbour

import (
	"fmt"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Outcome is the result of evaluating one movement-finished event.
type Outcome int

const (
	// OutcomeIgnored: not the after phase, no direction, or the entity is
	// not on a map of this atlas.
	OutcomeIgnored Outcome = iota
	// OutcomeNotOutward: the entity is not flush against the edge it moved
	// towards.
	OutcomeNotOutward
	// OutcomeDisabled: the entity's teleport flag is off.
	OutcomeDisabled
	// OutcomeUnlinked: no usable link at that edge.
	OutcomeUnlinked
	// OutcomeShapeRejected: the entity does not fit the target map, or is
	// not square on an axis-changing link.
	OutcomeShapeRejected
	// OutcomeTeleported: the entity was handed to the hook for relocation.
	OutcomeTeleported
	// OutcomeBusy: an evaluation was already running.
	OutcomeBusy
	// OutcomeRelocationFailed: the entity could not be placed on the target
	// map and was put back where it left from.
	OutcomeRelocationFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNotOutward:
		return "not-outward"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeUnlinked:
		return "unlinked"
	case OutcomeShapeRejected:
		return "shape-rejected"
	case OutcomeTeleported:
		return "teleported"
	case OutcomeBusy:
		return "busy"
	case OutcomeRelocationFailed:
		return "relocation-failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is the transient evaluation state of a Teleporter.
type State int

const (
	StateIdle State = iota
	StateEvaluating
	StateTeleporting
)

// Teleport describes one crossing, as passed to the hook. FromX and FromY
// are the entity's origin on the source map when it was detached; X and Y
// its origin on the target map.
type Teleport struct {
	Entity       types.Entity
	From         types.MapID
	FromSide     types.Direction
	FromX, FromY int
	To           types.MapID
	ToSide       types.Direction
	X, Y         int
	Orientation  types.Direction
}

// Relocation is the one-shot action that lands a detached entity on its
// target map. The first call to Do attaches it, cancels leftover movement,
// turns it to face away from the arrival edge and starts it moving. Later
// calls return ErrAlreadyRelocated.
//
// When the target map refuses the entity, Do puts it back on the source map
// at the position it left from and returns an error wrapping
// ErrRelocationFailed.
type Relocation struct {
	teleport Teleport
	done     bool
	failed   bool
}

// Do performs the relocation.
func (r *Relocation) Do() error {
	if r.done {
		return types.ErrAlreadyRelocated
	}
	r.done = true

	tp := r.teleport
	e := tp.Entity
	if err := e.Attach(tp.To, tp.X, tp.Y); err != nil {
		r.failed = true
		if rerr := r.restore(); rerr != nil {
			return fmt.Errorf("%w: attach to %s at (%d,%d): %w; %w",
				types.ErrRelocationFailed, tp.To, tp.X, tp.Y, err, rerr)
		}
		return fmt.Errorf("%w: attach to %s at (%d,%d): %w",
			types.ErrRelocationFailed, tp.To, tp.X, tp.Y, err)
	}
	e.CancelMovement()
	e.SetOrientation(tp.Orientation)
	e.StartMovement(tp.Orientation)
	return nil
}

// restore puts the entity back on the source map.
func (r *Relocation) restore() error {
	tp := r.teleport
	if err := tp.Entity.Attach(tp.From, tp.FromX, tp.FromY); err != nil {
		return fmt.Errorf("return to %s at (%d,%d): %w", tp.From, tp.FromX, tp.FromY, err)
	}
	return nil
}

// Done reports whether Do has been called.
func (r *Relocation) Done() bool { return r.done }

// Failed reports whether Do ran and the entity was put back on the source
// map.
func (r *Relocation) Failed() bool { return r.failed }

// Hook runs a teleport. It may delay the relocation (for a fade, say);
// a delayed Relocation has to be performed exactly once, eventually. A hook
// that returns an error without calling Do cancels the teleport and the
// entity is put back on the source map.
type Hook func(t Teleport, r *Relocation) error

// Immediate is the default hook. It relocates right away.
func Immediate(_ Teleport, r *Relocation) error {
	return r.Do()
}

// TeleporterOption configures a Teleporter.
type TeleporterOption func(*Teleporter)

// WithHook replaces the Immediate hook.
func WithHook(h Hook) TeleporterOption {
	return func(t *Teleporter) {
		if h != nil {
			t.hook = h
		}
	}
}

// Teleporter evaluates finished movements against the links of an atlas.
type Teleporter struct {
	atlas *Atlas
	hook  Hook
	state State
}

// NewTeleporter creates a Teleporter over the given atlas.
func NewTeleporter(a *Atlas, opts ...TeleporterOption) *Teleporter {
	t := &Teleporter{atlas: a, hook: Immediate}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current evaluation state. It is StateIdle between
// events.
func (t *Teleporter) State() State { return t.state }

// IsHeadingOutward reports whether e is on this map and its bounding box
// touches the edge in direction d.
func (r *Registry) IsHeadingOutward(e types.Entity, d types.Direction) bool {
	if e.Map() != r.id {
		return false
	}
	switch d {
	case types.Up:
		return e.Yf() == r.height-1
	case types.Down:
		return e.Y() == 0
	case types.Left:
		return e.X() == 0
	case types.Right:
		return e.Xf() == r.width-1
	default:
		return false
	}
}

// OnMovementFinished is the per-move entry point. It never fails: every
// reason not to teleport is reported as an Outcome, and the entity's
// finished move stands.
func (t *Teleporter) OnMovementFinished(ev types.MovementFinished) Outcome {
	if ev.Phase != types.PhaseAfter || ev.Entity == nil || !ev.Direction.Valid() {
		return OutcomeIgnored
	}
	if t.state != StateIdle {
		return OutcomeBusy
	}
	t.state = StateEvaluating
	defer func() { t.state = StateIdle }()

	e, dir := ev.Entity, ev.Direction
	src, ok := t.atlas.Registry(e.Map())
	if !ok {
		return OutcomeIgnored
	}
	if !src.IsHeadingOutward(e, dir) {
		return OutcomeNotOutward
	}
	if !e.Teleportable() {
		return OutcomeDisabled
	}
	link, ok := src.LinkAt(dir)
	if !ok {
		return OutcomeUnlinked
	}
	dst, ok := t.atlas.Registry(link.Target)
	if !ok {
		t.atlas.logger.Debug("link target is gone", "map", src.id, "side", dir, "target", link.Target)
		return OutcomeUnlinked
	}

	w, h := e.Width(), e.Height()
	if err := HasCompatibleShape(w, h, dst.width, dst.height, dir, link.TargetSide); err != nil {
		t.atlas.logger.Warn("object will not be teleported",
			"map", src.id, "side", dir, "target", dst.id, "target_side", link.TargetSide,
			"width", w, "height", h, "reason", err)
		return OutcomeShapeRejected
	}

	t.state = StateTeleporting
	x, y := e.X(), e.Y()
	e.Detach()
	nx, ny, _ := ComputeAttachment(x, y, w, h, dst.width, dst.height, dir, link.TargetSide)
	tp := Teleport{
		Entity:      e,
		From:        src.id,
		FromSide:    dir,
		FromX:       x,
		FromY:       y,
		To:          dst.id,
		ToSide:      link.TargetSide,
		X:           nx,
		Y:           ny,
		Orientation: link.TargetSide.Opposite(),
	}
	r := &Relocation{teleport: tp}
	err := t.hook(tp, r)
	if err != nil && !r.Done() {
		// The hook gave up without relocating; nothing else will land the
		// entity, so it goes back where it was.
		r.done, r.failed = true, true
		if rerr := r.restore(); rerr != nil {
			err = fmt.Errorf("%w; %w", err, rerr)
		}
	}
	if r.Failed() {
		t.atlas.logger.Error("teleport relocation failed",
			"from", tp.From, "to", tp.To, "x", tp.X, "y", tp.Y, "error", err)
		return OutcomeRelocationFailed
	}
	if err != nil {
		t.atlas.logger.Warn("teleport hook failed after relocating",
			"from", tp.From, "to", tp.To, "error", err)
	}
	t.atlas.logger.Debug("teleported",
		"from", tp.From, "side", tp.FromSide, "to", tp.To, "to_side", tp.ToSide,
		"x", tp.X, "y", tp.Y, "orientation", tp.Orientation)
	return OutcomeTeleported
}
