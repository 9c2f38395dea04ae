package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// World errors.
var (
	ErrOutOfBounds   = errors.New("body does not fit inside the map")
	ErrUnknownBody   = errors.New("unknown body")
	ErrDuplicateBody = errors.New("body already exists")
)

// Step is what happened to one moving body during World.Step.
type Step struct {
	Body      string
	Direction types.Direction
	// Blocked is set when the move would have left the map; the movement
	// was cancelled and no event was emitted.
	Blocked bool
	// Outcome is the teleporter's verdict on the finished move.
	Outcome neighbour.Outcome
	// Map, X and Y are the body's position after the step. Map is empty
	// while a delayed relocation is pending.
	Map  types.MapID
	X, Y int
}

func (s Step) String() string {
	if s.Blocked {
		return fmt.Sprintf("%s %s blocked at %s (%d,%d)", s.Body, s.Direction, s.Map, s.X, s.Y)
	}
	if s.Map == "" {
		return fmt.Sprintf("%s %s %s, in transit", s.Body, s.Direction, s.Outcome)
	}
	return fmt.Sprintf("%s %s %s, now at %s (%d,%d)", s.Body, s.Direction, s.Outcome, s.Map, s.X, s.Y)
}

type pendingRelocation struct {
	body *Body
	due  int
	r    *neighbour.Relocation
}

// World steps bodies across the maps of an atlas.
type World struct {
	atlas   *neighbour.Atlas
	bus     *Bus
	logger  *slog.Logger
	bodies  map[string]*Body
	order   []string
	tick    int
	pending []pendingRelocation

	lastOutcome neighbour.Outcome
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithWorldLogger sets the logger for relocation failures.
func WithWorldLogger(l *slog.Logger) WorldOption {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorld creates a world over the maps of a.
func NewWorld(a *neighbour.Atlas, opts ...WorldOption) *World {
	w := &World{
		atlas:  a,
		bus:    NewBus(),
		logger: slog.Default(),
		bodies: make(map[string]*Body),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Bus returns the world's event bus.
func (w *World) Bus() *Bus { return w.bus }

// Tick returns the number of completed steps.
func (w *World) Tick() int { return w.tick }

// Connect subscribes the teleporter to the world's movement events.
func (w *World) Connect(tp *neighbour.Teleporter) {
	w.bus.Subscribe(EventMovementFinished, func(e Event) {
		ev, ok := e.(MovementEvent)
		if !ok {
			return
		}
		out := tp.OnMovementFinished(ev.MovementFinished)
		if ev.Phase == types.PhaseAfter {
			w.lastOutcome = out
		}
	})
}

// AddBody places a new w x h body on map m at (x, y).
func (w *World) AddBody(id string, m types.MapID, x, y, width, height int) (*Body, error) {
	if id == "" {
		return nil, fmt.Errorf("body: %w", types.ErrInvalidID)
	}
	if _, ok := w.bodies[id]; ok {
		return nil, fmt.Errorf("body %s: %w", id, ErrDuplicateBody)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("body %s: %w", id, types.ErrInvalidDimensions)
	}
	b := &Body{id: id, world: w, w: width, h: height}
	if err := b.Attach(m, x, y); err != nil {
		return nil, err
	}
	w.bodies[id] = b
	w.order = append(w.order, id)
	return b, nil
}

// Body returns a body by id.
func (w *World) Body(id string) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Move starts a one-cell move of body id in direction d.
func (w *World) Move(id string, d types.Direction) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("body %s: %w", id, ErrUnknownBody)
	}
	if !b.StartMovement(d) {
		return fmt.Errorf("body %s cannot move %s", id, d)
	}
	return nil
}

// Step lands the relocations that are due, then advances every moving body
// one cell in insertion order. A completed move emits MovementFinished in
// the before phase, then the after phase. Movement started while the step
// runs, by a teleport for example, is performed by the next Step.
func (w *World) Step() []Step {
	w.tick++
	w.landDue()

	var movers []*Body
	for _, id := range w.order {
		b := w.bodies[id]
		if b.moving.Valid() && !b.Detached() {
			movers = append(movers, b)
		}
	}

	steps := make([]Step, 0, len(movers))
	for _, b := range movers {
		d := b.moving
		b.moving = 0
		s := Step{Body: b.id, Direction: d}

		nx, ny := b.x, b.y
		switch d {
		case types.Up:
			ny++
		case types.Down:
			ny--
		case types.Left:
			nx--
		case types.Right:
			nx++
		}
		r, _ := w.atlas.Registry(b.mapID)
		if r == nil || nx < 0 || ny < 0 || nx+b.w > r.Width() || ny+b.h > r.Height() {
			s.Blocked = true
			s.Map, s.X, s.Y = b.mapID, b.x, b.y
			steps = append(steps, s)
			continue
		}
		b.x, b.y = nx, ny

		w.lastOutcome = neighbour.OutcomeIgnored
		for _, phase := range []string{types.PhaseBefore, types.PhaseAfter} {
			w.bus.Emit(MovementEvent{types.MovementFinished{Entity: b, Direction: d, Phase: phase}})
		}
		s.Outcome = w.lastOutcome
		s.Map, s.X, s.Y = b.mapID, b.x, b.y
		steps = append(steps, s)
	}
	return steps
}

// FadeHook returns a teleport hook that holds each relocation for the given
// number of steps. The body stays detached in the meantime. A delay of zero
// or less relocates immediately.
func (w *World) FadeHook(steps int) neighbour.Hook {
	return func(t neighbour.Teleport, r *neighbour.Relocation) error {
		if steps <= 0 {
			return r.Do()
		}
		b, ok := t.Entity.(*Body)
		if !ok {
			return r.Do()
		}
		w.pending = append(w.pending, pendingRelocation{body: b, due: w.tick + steps, r: r})
		return nil
	}
}

// Pending returns the number of relocations waiting to land.
func (w *World) Pending() int { return len(w.pending) }

func (w *World) landDue() {
	kept := w.pending[:0]
	var due []pendingRelocation
	for _, p := range w.pending {
		if p.due <= w.tick {
			due = append(due, p)
			continue
		}
		kept = append(kept, p)
	}
	w.pending = kept

	for _, p := range due {
		err := p.r.Do()
		if err != nil {
			w.logger.Error("delayed relocation failed",
				"body", p.body.id, "map", p.body.mapID, "x", p.body.x, "y", p.body.y, "error", err)
		}
		w.bus.Emit(RelocatedEvent{Body: p.body, Err: err})
	}
}
