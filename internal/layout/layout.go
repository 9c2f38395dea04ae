// Package layout reads atlas layout files: YAML documents describing maps,
// the links between their edges and, optionally, bodies to place on them.
//
//	maps:
//	  - {id: town, width: 10, height: 8}
//	  - {id: field, width: 10, height: 8}
//	links:
//	  - {from: town, from_side: right, to: field, to_side: left}
//	cycles:
//	  - {map: field, vertical: true}
//	bodies:
//	  - {id: hero, map: town, x: 8, y: 3, width: 2, height: 2}
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/atlas/internal/sim"
	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Layout is one parsed layout file.
type Layout struct {
	Maps   []MapSpec   `yaml:"maps"`
	Links  []LinkSpec  `yaml:"links"`
	Cycles []CycleSpec `yaml:"cycles"`
	Bodies []BodySpec  `yaml:"bodies"`
}

type MapSpec struct {
	ID     types.MapID `yaml:"id"`
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`
}

// LinkSpec is one link. Links are symmetric unless symmetric is false.
type LinkSpec struct {
	From      types.MapID     `yaml:"from"`
	FromSide  types.Direction `yaml:"from_side"`
	To        types.MapID     `yaml:"to"`
	ToSide    types.Direction `yaml:"to_side"`
	Symmetric *bool           `yaml:"symmetric"`
}

func (l LinkSpec) symmetric() bool {
	return l.Symmetric == nil || *l.Symmetric
}

func (l LinkSpec) String() string {
	arrow := "<->"
	if !l.symmetric() {
		arrow = "->"
	}
	return fmt.Sprintf("%s %s %s %s %s", l.From, l.FromSide, arrow, l.To, l.ToSide)
}

type CycleSpec struct {
	Map        types.MapID `yaml:"map"`
	Vertical   bool        `yaml:"vertical"`
	Horizontal bool        `yaml:"horizontal"`
}

// BodySpec places a body for simulation. Bodies are teleportable unless
// teleportable is false.
type BodySpec struct {
	ID           string      `yaml:"id"`
	Map          types.MapID `yaml:"map"`
	X            int         `yaml:"x"`
	Y            int         `yaml:"y"`
	Width        int         `yaml:"width"`
	Height       int         `yaml:"height"`
	Teleportable *bool       `yaml:"teleportable"`
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: load %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout: %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes a layout document. Unknown keys and invalid sides are
// errors. An empty document is an empty layout.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks the parts of the layout that do not depend on map sizes.
// Boundary sizes are checked by Apply.
func (l *Layout) Validate() error {
	seen := make(map[types.MapID]bool, len(l.Maps))
	for i, m := range l.Maps {
		if m.ID == "" {
			return fmt.Errorf("maps[%d]: %w", i, types.ErrInvalidID)
		}
		if seen[m.ID] {
			return fmt.Errorf("map %s: %w", m.ID, types.ErrDuplicateMap)
		}
		seen[m.ID] = true
		if m.Width <= 0 || m.Height <= 0 {
			return fmt.Errorf("map %s: %w", m.ID, types.ErrInvalidDimensions)
		}
	}
	for i, ln := range l.Links {
		if !ln.FromSide.Valid() || !ln.ToSide.Valid() {
			return fmt.Errorf("links[%d] %s: %w", i, ln, types.ErrInvalidDirection)
		}
	}
	for i, b := range l.Bodies {
		if b.ID == "" {
			return fmt.Errorf("bodies[%d]: %w", i, types.ErrInvalidID)
		}
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("body %s: %w", b.ID, types.ErrInvalidDimensions)
		}
	}
	return nil
}

// Apply adds the maps of the layout to the atlas, resizing any that already
// exist, then creates its links and cycles. It stops at the first link the
// atlas rejects and names it in the error.
func (l *Layout) Apply(a *neighbour.Atlas) error {
	for _, m := range l.Maps {
		if _, ok := a.Registry(m.ID); ok {
			if _, err := a.Resize(m.ID, m.Width, m.Height); err != nil {
				return err
			}
			continue
		}
		if _, err := a.AddMap(m.ID, m.Width, m.Height); err != nil {
			return err
		}
	}

	for _, ln := range l.Links {
		from, ok := a.Registry(ln.From)
		if !ok {
			return fmt.Errorf("link %s: map %s: %w", ln, ln.From, types.ErrMapNotFound)
		}
		to, ok := a.Registry(ln.To)
		if !ok {
			return fmt.Errorf("link %s: map %s: %w", ln, ln.To, types.ErrMapNotFound)
		}
		if err := from.Link(ln.FromSide, to, ln.ToSide, ln.symmetric()); err != nil {
			return fmt.Errorf("link %s: %w", ln, err)
		}
	}

	for _, c := range l.Cycles {
		r, ok := a.Registry(c.Map)
		if !ok {
			return fmt.Errorf("cycle %s: %w", c.Map, types.ErrMapNotFound)
		}
		if err := r.Cycle(c.Vertical, c.Horizontal); err != nil {
			return fmt.Errorf("cycle %s: %w", c.Map, err)
		}
	}
	return nil
}

// Populate adds the bodies of the layout to a world.
func (l *Layout) Populate(w *sim.World) error {
	for _, spec := range l.Bodies {
		b, err := w.AddBody(spec.ID, spec.Map, spec.X, spec.Y, spec.Width, spec.Height)
		if err != nil {
			return err
		}
		if spec.Teleportable != nil {
			b.SetTeleportable(*spec.Teleportable)
		}
	}
	return nil
}
