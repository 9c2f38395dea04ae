package cli

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/atlas/internal/sqlite"
	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(a.storeConfig(dataDir)); err != nil {
		if errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrBackendUnknown) {
			return nil, userErrorf("attach backend: %w", err)
		}
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// atlasOptions returns the options every atlas built by the CLI shares.
func (a *app) atlasOptions() []neighbour.Option {
	return []neighbour.Option{
		neighbour.WithLogger(a.logger),
		neighbour.WithEagerRevalidation(a.cfg.GetBool(cfgKeyRevalidateOnResize)),
	}
}

// withAtlas restores the stored atlas, runs fn on it and, when fn succeeds,
// writes the atlas back. Links dropped while restoring are logged by the
// atlas and are gone from the store once it is written back.
func (a *app) withAtlas(fn func(at *neighbour.Atlas) error) error {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	at, _, err := backend.Restore(a.atlasOptions()...)
	if err != nil {
		return fmt.Errorf("restore atlas: %w", err)
	}
	if err := fn(at); err != nil {
		return err
	}
	if err := backend.Snapshot(at); err != nil {
		return fmt.Errorf("save atlas: %w", err)
	}
	return nil
}

// registry looks up a map, returning a user error when it does not exist.
func registry(at *neighbour.Atlas, id string) (*neighbour.Registry, error) {
	r, ok := at.Registry(types.MapID(id))
	if !ok {
		return nil, userErrorf("map %s: %w", id, types.ErrMapNotFound)
	}
	return r, nil
}

// parseSide parses a side argument, returning a user error when it is not a
// direction.
func parseSide(s string) (types.Direction, error) {
	d, err := types.ParseDirection(s)
	if err != nil {
		return 0, userError{err}
	}
	return d, nil
}

// asUserError reports domain validation failures as user errors.
func asUserError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range []error{
		types.ErrShapeMismatch,
		types.ErrInvalidDirection,
		types.ErrInvalidDimensions,
		types.ErrInvalidID,
		types.ErrMapNotFound,
		types.ErrDuplicateMap,
		types.ErrNotFound,
		types.ErrInvalidState,
	} {
		if errors.Is(err, target) {
			return userError{err}
		}
	}
	return err
}
