package neighbour

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Atlas is the arena of link registries, one per map, indexed by MapID.
type Atlas struct {
	maps   map[types.MapID]*Registry
	logger *slog.Logger
	eager  bool
}

// Option configures an Atlas.
type Option func(*Atlas)

// WithLogger sets the logger used for stale-link diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Atlas) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithEagerRevalidation makes Resize revalidate the resized map's links and
// every link pointing at it. Without it, links are only checked when a
// registry is activated, and a resize can leave mismatched links in place.
func WithEagerRevalidation(on bool) Option {
	return func(a *Atlas) {
		a.eager = on
	}
}

// NewAtlas creates an empty atlas.
func NewAtlas(opts ...Option) *Atlas {
	a := &Atlas{
		maps:   make(map[types.MapID]*Registry),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddMap creates the registry of a new width x height map.
func (a *Atlas) AddMap(id types.MapID, width, height int) (*Registry, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("map %s: %w", id, types.ErrInvalidDimensions)
	}
	if _, ok := a.maps[id]; ok {
		return nil, fmt.Errorf("map %s: %w", id, types.ErrDuplicateMap)
	}
	r := &Registry{
		atlas:  a,
		id:     id,
		width:  width,
		height: height,
		links:  make(map[types.Direction]*types.SideLink),
	}
	a.maps[id] = r
	return r, nil
}

// Registry returns the registry of a map, if the map exists.
func (a *Atlas) Registry(id types.MapID) (*Registry, bool) {
	r, ok := a.maps[id]
	return r, ok
}

// RemoveMap unlinks every side of the map symmetrically, then destroys its
// registry. Further calls on the destroyed registry fail with
// ErrInvalidState.
func (a *Atlas) RemoveMap(id types.MapID) error {
	r, ok := a.maps[id]
	if !ok {
		return fmt.Errorf("map %s: %w", id, types.ErrMapNotFound)
	}
	r.UnlinkAll(true)
	r.destroyed = true
	delete(a.maps, id)
	return nil
}

// Resize changes the boundary sizes of a map. Links are left alone unless
// the atlas was built WithEagerRevalidation, in which case mismatched links
// on both ends are dropped and returned.
func (a *Atlas) Resize(id types.MapID, width, height int) ([]StaleLink, error) {
	r, ok := a.maps[id]
	if !ok {
		return nil, fmt.Errorf("map %s: %w", id, types.ErrMapNotFound)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("map %s: %w", id, types.ErrInvalidDimensions)
	}
	r.width, r.height = width, height
	if !a.eager {
		return nil, nil
	}

	stale := r.revalidate()
	for _, other := range a.sortedRegistries() {
		if other == r {
			continue
		}
		for _, l := range other.links {
			if l != nil && l.Target == id {
				stale = append(stale, other.revalidate()...)
				break
			}
		}
	}
	return stale, nil
}

// Activate runs ValidateOnActivate on every registry that is not active yet
// and returns everything that was dropped.
func (a *Atlas) Activate() []StaleLink {
	var stale []StaleLink
	for _, r := range a.sortedRegistries() {
		stale = append(stale, r.ValidateOnActivate()...)
	}
	return stale
}

// Maps returns the maps of the atlas ordered by id.
func (a *Atlas) Maps() []types.MapRecord {
	regs := a.sortedRegistries()
	out := make([]types.MapRecord, 0, len(regs))
	for _, r := range regs {
		out = append(out, types.MapRecord{ID: r.id, Width: r.width, Height: r.height})
	}
	return out
}

// Links returns every stored link ordered by source map, then side.
func (a *Atlas) Links() []types.Link {
	var out []types.Link
	for _, r := range a.sortedRegistries() {
		out = append(out, r.Links()...)
	}
	return out
}

func (a *Atlas) sortedRegistries() []*Registry {
	regs := make([]*Registry, 0, len(a.maps))
	for _, r := range a.maps {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].id < regs[j].id })
	return regs
}

// Registry holds the links of one map: at most one per side.
type Registry struct {
	atlas     *Atlas
	id        types.MapID
	width     int
	height    int
	links     map[types.Direction]*types.SideLink
	active    bool
	destroyed bool
}

// ID returns the map the registry belongs to.
func (r *Registry) ID() types.MapID { return r.id }

// Width returns the map width in cells.
func (r *Registry) Width() int { return r.width }

// Height returns the map height in cells.
func (r *Registry) Height() int { return r.height }

// Active reports whether ValidateOnActivate has run.
func (r *Registry) Active() bool { return r.active }

// Destroyed reports whether the map was removed from its atlas.
func (r *Registry) Destroyed() bool { return r.destroyed }

// BoundarySize is the length of the given edge: the width for the up and
// down edges, the height for the left and right ones.
func (r *Registry) BoundarySize(side types.Direction) int {
	if side.Vertical() {
		return r.width
	}
	return r.height
}

func boundarySizeMatches(first *Registry, firstSide types.Direction, second *Registry, secondSide types.Direction) bool {
	return first.BoundarySize(firstSide) == second.BoundarySize(secondSide)
}

// Link connects side fromSide of this map to side toSide of target,
// replacing any link already stored at fromSide. With symmetric set, the
// reverse link is created on target as well. A nil or destroyed target
// unlinks fromSide instead. Target may be the registry itself.
func (r *Registry) Link(fromSide types.Direction, target *Registry, toSide types.Direction, symmetric bool) error {
	if r.destroyed {
		return fmt.Errorf("link %s %s: %w", r.id, fromSide, types.ErrInvalidState)
	}
	if target == nil || target.destroyed {
		r.Unlink(fromSide, symmetric)
		return nil
	}
	if !fromSide.Valid() || !toSide.Valid() {
		return fmt.Errorf("link %s %s to %s %s: %w", r.id, fromSide, target.id, toSide, types.ErrInvalidDirection)
	}
	if target.atlas != r.atlas {
		return fmt.Errorf("link %s %s to %s: %w", r.id, fromSide, target.id, types.ErrMapNotFound)
	}
	if !boundarySizeMatches(r, fromSide, target, toSide) {
		return fmt.Errorf("link %s %s (%d) to %s %s (%d): %w",
			r.id, fromSide, r.BoundarySize(fromSide),
			target.id, toSide, target.BoundarySize(toSide),
			types.ErrShapeMismatch)
	}

	r.links[fromSide] = &types.SideLink{Target: target.id, TargetSide: toSide}
	if symmetric {
		return target.Link(toSide, r, fromSide, false)
	}
	return nil
}

// Unlink removes the link at fromSide, if any. With symmetric set, the
// link stored at the recorded side of the former target is removed too.
func (r *Registry) Unlink(fromSide types.Direction, symmetric bool) {
	link, ok := r.links[fromSide]
	if !ok {
		return
	}
	delete(r.links, fromSide)
	if !symmetric || link == nil {
		return
	}
	if target, ok := r.atlas.Registry(link.Target); ok {
		target.Unlink(link.TargetSide, false)
	}
}

// UnlinkAll unlinks the four sides one by one.
func (r *Registry) UnlinkAll(symmetric bool) {
	for _, d := range types.AllDirections() {
		r.Unlink(d, symmetric)
	}
}

// Cycle links the map to itself: up with down, left with right, or both
// to make a torus.
func (r *Registry) Cycle(vertical, horizontal bool) error {
	if vertical {
		if err := r.Link(types.Up, r, types.Down, true); err != nil {
			return err
		}
	}
	if horizontal {
		if err := r.Link(types.Left, r, types.Right, true); err != nil {
			return err
		}
	}
	return nil
}

// LinkAt returns the link stored at side.
func (r *Registry) LinkAt(side types.Direction) (types.SideLink, bool) {
	link, ok := r.links[side]
	if !ok || link == nil {
		return types.SideLink{}, false
	}
	return *link, true
}

// Links returns the stored links in side order. Entries that would not
// survive activation are skipped.
func (r *Registry) Links() []types.Link {
	var out []types.Link
	for _, d := range []types.Direction{types.Up, types.Down, types.Left, types.Right} {
		if link, ok := r.LinkAt(d); ok {
			out = append(out, types.Link{FromMap: r.id, FromSide: d, ToMap: link.Target, ToSide: link.TargetSide})
		}
	}
	return out
}

// Restore replaces the link table with serialized entries, as read from
// storage, without validating them. The registry becomes inactive until
// ValidateOnActivate runs.
func (r *Registry) Restore(links map[types.Direction]*types.SideLink) {
	r.links = make(map[types.Direction]*types.SideLink, len(links))
	for d, l := range links {
		r.links[d] = l
	}
	r.active = false
}

// ValidateOnActivate drops every entry that can no longer be honoured: an
// unknown side, a missing record or target, an unknown target side, or
// mismatched boundary sizes. Each drop is logged as a warning. Calling it
// on an active registry does nothing.
func (r *Registry) ValidateOnActivate() []StaleLink {
	if r.active {
		return nil
	}
	r.active = true
	return r.revalidate()
}

func (r *Registry) revalidate() []StaleLink {
	sides := make([]types.Direction, 0, len(r.links))
	for d := range r.links {
		sides = append(sides, d)
	}
	sort.Slice(sides, func(i, j int) bool { return sides[i] < sides[j] })

	var stale []StaleLink
	for _, d := range sides {
		link := r.links[d]
		reason := r.staleReason(d, link)
		if reason == "" {
			continue
		}
		delete(r.links, d)
		s := StaleLink{Map: r.id, Side: d, Reason: reason}
		if link != nil {
			s.Link = *link
		}
		r.atlas.logger.Warn("side link removed on activation",
			"map", r.id, "side", d, "reason", reason)
		stale = append(stale, s)
	}
	return stale
}

func (r *Registry) staleReason(side types.Direction, link *types.SideLink) string {
	if !side.Valid() {
		return "unknown side"
	}
	if link == nil {
		return "missing link record"
	}
	if !link.TargetSide.Valid() {
		return "unknown target side"
	}
	target, ok := r.atlas.Registry(link.Target)
	if !ok {
		return "missing target map"
	}
	if !boundarySizeMatches(r, side, target, link.TargetSide) {
		return "boundary size mismatch"
	}
	return ""
}

// StaleLink describes a link entry dropped during validation.
type StaleLink struct {
	Map    types.MapID
	Side   types.Direction
	Link   types.SideLink
	Reason string
}

func (s StaleLink) Error() string {
	return fmt.Sprintf("%s: map %s side %s: %s", types.ErrStaleLink, s.Map, s.Side, s.Reason)
}

func (s StaleLink) Unwrap() error { return types.ErrStaleLink }
