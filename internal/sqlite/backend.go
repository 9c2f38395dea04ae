package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// dbFile is the SQLite database in DataDir. It is rebuilt from the JSONL
// files on every Attach.
const dbFile = "atlas.db"

var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, recreates the SQLite schema and
// loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(config.DataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, config.DataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend. After Detach, all
// operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// DataDir returns the directory the backend is attached to.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// SaveMap creates the map, or updates its dimensions if it exists. An
// empty ID is replaced with a UUID v7.
func (b *Backend) SaveMap(m types.MapRecord) (types.MapID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("map %s: %w", m.ID, err)
	}
	if m.ID == "" {
		m.ID = types.MapID(generateUUID())
	}

	_, err := b.db.Exec(
		`INSERT INTO maps (map_id, width, height) VALUES (?, ?, ?)
		 ON CONFLICT(map_id) DO UPDATE SET width = excluded.width, height = excluded.height`,
		string(m.ID), m.Width, m.Height,
	)
	if err != nil {
		return "", fmt.Errorf("saving map %s: %w", m.ID, err)
	}
	if err := persistMaps(b.db, b.config.DataDir); err != nil {
		return "", fmt.Errorf("persisting %s: %w", mapsJSONL, err)
	}
	return m.ID, nil
}

// GetMap returns a map record, or ErrNotFound.
func (b *Backend) GetMap(id types.MapID) (types.MapRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.MapRecord{}, types.ErrStoreDetached
	}
	if id == "" {
		return types.MapRecord{}, types.ErrInvalidID
	}

	rec := types.MapRecord{ID: id}
	err := b.db.QueryRow("SELECT width, height FROM maps WHERE map_id = ?", string(id)).
		Scan(&rec.Width, &rec.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return types.MapRecord{}, fmt.Errorf("map %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.MapRecord{}, fmt.Errorf("getting map %s: %w", id, err)
	}
	return rec, nil
}

// ListMaps returns every map ordered by id.
func (b *Backend) ListMaps() ([]types.MapRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query("SELECT map_id, width, height FROM maps ORDER BY map_id")
	if err != nil {
		return nil, fmt.Errorf("listing maps: %w", err)
	}
	defer rows.Close()

	out := []types.MapRecord{}
	for rows.Next() {
		var rec types.MapRecord
		var id string
		if err := rows.Scan(&id, &rec.Width, &rec.Height); err != nil {
			return nil, fmt.Errorf("scanning map row: %w", err)
		}
		rec.ID = types.MapID(id)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating maps: %w", err)
	}
	return out, nil
}

// DeleteMap removes the map and every link from or to it.
func (b *Backend) DeleteMap(id types.MapID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM maps WHERE map_id = ?", string(id))
	if err != nil {
		return fmt.Errorf("deleting map %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("map %s: %w", id, types.ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM links WHERE from_map = ? OR to_map = ?", string(id), string(id)); err != nil {
		return fmt.Errorf("deleting links of map %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing map deletion: %w", err)
	}

	return b.persistAllLocked()
}

// SaveLinks replaces the stored link table of a map. Entries with an
// invalid side or no record are not stored.
func (b *Backend) SaveLinks(id types.MapID, links map[types.Direction]*types.SideLink) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow("SELECT 1 FROM maps WHERE map_id = ?", string(id)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("map %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking map %s: %w", id, err)
	}

	if _, err := tx.Exec("DELETE FROM links WHERE from_map = ?", string(id)); err != nil {
		return fmt.Errorf("clearing links of map %s: %w", id, err)
	}
	for side, link := range links {
		if !side.Valid() || link == nil {
			continue
		}
		if err := insertLink(tx, types.Link{FromMap: id, FromSide: side, ToMap: link.Target, ToSide: link.TargetSide}); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing links of map %s: %w", id, err)
	}

	if err := persistLinks(b.db, b.config.DataDir); err != nil {
		return fmt.Errorf("persisting %s: %w", linksJSONL, err)
	}
	return nil
}

// LoadLinks returns the stored link table of a map as written. Unknown side
// names decode to the zero Direction and are left for activation to drop.
func (b *Backend) LoadLinks(id types.MapID) (map[types.Direction]*types.SideLink, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query("SELECT from_side, to_map, to_side FROM links WHERE from_map = ?", string(id))
	if err != nil {
		return nil, fmt.Errorf("loading links of map %s: %w", id, err)
	}
	defer rows.Close()

	out := make(map[types.Direction]*types.SideLink)
	for rows.Next() {
		var fromSide, toMap, toSide string
		if err := rows.Scan(&fromSide, &toMap, &toSide); err != nil {
			return nil, fmt.Errorf("scanning link row: %w", err)
		}
		var side types.Direction
		_ = side.UnmarshalText([]byte(fromSide))
		link := &types.SideLink{Target: types.MapID(toMap)}
		_ = link.TargetSide.UnmarshalText([]byte(toSide))
		out[side] = link
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return out, nil
}

// ListLinks returns every stored link ordered by source map, then side.
// Entries whose sides do not parse are included with zero directions.
func (b *Backend) ListLinks() ([]types.Link, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query("SELECT from_map, from_side, to_map, to_side FROM links")
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	out := []types.Link{}
	for rows.Next() {
		var fromMap, fromSide, toMap, toSide string
		if err := rows.Scan(&fromMap, &fromSide, &toMap, &toSide); err != nil {
			return nil, fmt.Errorf("scanning link row: %w", err)
		}
		l := types.Link{FromMap: types.MapID(fromMap), ToMap: types.MapID(toMap)}
		_ = l.FromSide.UnmarshalText([]byte(fromSide))
		_ = l.ToSide.UnmarshalText([]byte(toSide))
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromMap != out[j].FromMap {
			return out[i].FromMap < out[j].FromMap
		}
		return out[i].FromSide < out[j].FromSide
	})
	return out, nil
}

func insertLink(tx *sql.Tx, l types.Link) error {
	_, err := tx.Exec(
		"INSERT INTO links (from_map, from_side, to_map, to_side) VALUES (?, ?, ?, ?)",
		string(l.FromMap), l.FromSide.String(), string(l.ToMap), l.ToSide.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting link %s/%s: %w", l.FromMap, l.FromSide, err)
	}
	return nil
}

// persistAllLocked rewrites both JSONL files. The caller must hold b.mu.
func (b *Backend) persistAllLocked() error {
	if err := persistMaps(b.db, b.config.DataDir); err != nil {
		return fmt.Errorf("persisting %s: %w", mapsJSONL, err)
	}
	if err := persistLinks(b.db, b.config.DataDir); err != nil {
		return fmt.Errorf("persisting %s: %w", linksJSONL, err)
	}
	return nil
}

// generateUUID generates a new UUID v7 for map IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
