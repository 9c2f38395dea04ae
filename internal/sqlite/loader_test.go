package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadJSONL(t *testing.T) {
	tests := []struct {
		name      string
		maps      string
		links     string
		wantMaps  []types.MapID
		wantLinks int
	}{
		{
			name: "unknown fields are ignored",
			maps: `{"map_id":"a","width":4,"height":4,"biome":"forest"}
`,
			links: `{"from_map":"a","from_side":"up","to_map":"a","to_side":"down","weight":1}
`,
			wantMaps:  []types.MapID{"a"},
			wantLinks: 1,
		},
		{
			name: "non-positive dimensions are skipped",
			maps: `{"map_id":"a","width":4,"height":4}
{"map_id":"flat","width":4,"height":0}
`,
			wantMaps: []types.MapID{"a"},
		},
		{
			name: "records missing a column are skipped",
			maps: `{"map_id":"a","width":4,"height":4}
{"map_id":"b","width":4}
`,
			links: `{"from_map":"a","from_side":"up","to_map":"a"}
`,
			wantMaps: []types.MapID{"a"},
		},
		{
			name: "second link on the same side is skipped",
			maps: `{"map_id":"a","width":4,"height":4}
`,
			links: `{"from_map":"a","from_side":"left","to_map":"a","to_side":"right"}
{"from_map":"a","from_side":"left","to_map":"b","to_side":"right"}
`,
			wantMaps:  []types.MapID{"a"},
			wantLinks: 1,
		},
		{
			name: "links to unknown maps are kept for activation to judge",
			maps: `{"map_id":"a","width":4,"height":4}
`,
			links: `{"from_map":"a","from_side":"left","to_map":"gone","to_side":"right"}
{"from_map":"a","from_side":"diagonal","to_map":"a","to_side":"right"}
`,
			wantMaps:  []types.MapID{"a"},
			wantLinks: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDataFile(t, dir, mapsJSONL, tt.maps)
			writeDataFile(t, dir, linksJSONL, tt.links)

			b := NewBackend()
			require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
			defer b.Detach()

			maps, err := b.ListMaps()
			require.NoError(t, err)
			ids := make([]types.MapID, 0, len(maps))
			for _, m := range maps {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.wantMaps, ids)

			links, err := b.ListLinks()
			require.NoError(t, err)
			assert.Len(t, links, tt.wantLinks)
		})
	}
}
