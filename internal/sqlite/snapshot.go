// This file moves whole atlases in and out of the store.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Snapshot replaces every stored map and link with the state of the atlas.
func (b *Backend) Snapshot(a *neighbour.Atlas) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM links"); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM maps"); err != nil {
		return fmt.Errorf("clearing maps: %w", err)
	}
	for _, m := range a.Maps() {
		if _, err := tx.Exec("INSERT INTO maps (map_id, width, height) VALUES (?, ?, ?)",
			string(m.ID), m.Width, m.Height); err != nil {
			return fmt.Errorf("inserting map %s: %w", m.ID, err)
		}
	}
	for _, l := range a.Links() {
		if err := insertLink(tx, l); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return b.persistAllLocked()
}

// Restore builds an atlas from the store. Every map gets a registry whose
// raw link table is loaded unvalidated, then the atlas is activated, which
// drops the links that no longer hold. The dropped links are returned; the
// store itself is not modified.
func (b *Backend) Restore(opts ...neighbour.Option) (*neighbour.Atlas, []neighbour.StaleLink, error) {
	maps, err := b.ListMaps()
	if err != nil {
		return nil, nil, err
	}

	a := neighbour.NewAtlas(opts...)
	regs := make([]*neighbour.Registry, 0, len(maps))
	for _, m := range maps {
		r, err := a.AddMap(m.ID, m.Width, m.Height)
		if err != nil {
			return nil, nil, fmt.Errorf("restoring map %s: %w", m.ID, err)
		}
		regs = append(regs, r)
	}
	for _, r := range regs {
		links, err := b.LoadLinks(r.ID())
		if err != nil {
			return nil, nil, err
		}
		r.Restore(links)
	}
	return a, a.Activate(), nil
}
