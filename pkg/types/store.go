package types

import "errors"

// Store is the backend-agnostic persistence of an atlas: its maps and the
// link table of every map. Callers attach to a backend, read and write
// records, and detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Multiple calls succeed. After
	// Detach, every other method returns ErrStoreDetached.
	Detach() error

	// SaveMap creates or updates a map record. An empty ID is replaced by
	// a generated one, which is returned.
	SaveMap(m MapRecord) (MapID, error)
	// GetMap returns ErrNotFound for an unknown id.
	GetMap(id MapID) (MapRecord, error)
	ListMaps() ([]MapRecord, error)
	// DeleteMap removes a map and every link from or to it.
	DeleteMap(id MapID) error

	// SaveLinks replaces the stored link table of one map.
	SaveLinks(id MapID, links map[Direction]*SideLink) error
	// LoadLinks returns the stored link table of one map as written,
	// without validating it.
	LoadLinks(id MapID) (map[Direction]*SideLink, error)
	ListLinks() ([]Link, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
