package neighbour

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

func quietAtlas(opts ...Option) *Atlas {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewAtlas(opts...)
}

func mustAddMap(t *testing.T, a *Atlas, id types.MapID, w, h int) *Registry {
	t.Helper()
	r, err := a.AddMap(id, w, h)
	require.NoError(t, err)
	return r
}

func TestAtlas_AddMap(t *testing.T) {
	a := quietAtlas()
	_, err := a.AddMap("a", 10, 8)
	require.NoError(t, err)

	_, err = a.AddMap("a", 4, 4)
	assert.ErrorIs(t, err, types.ErrDuplicateMap)

	_, err = a.AddMap("", 4, 4)
	assert.ErrorIs(t, err, types.ErrInvalidID)

	_, err = a.AddMap("b", 0, 4)
	assert.ErrorIs(t, err, types.ErrInvalidDimensions)

	assert.Equal(t, []types.MapRecord{{ID: "a", Width: 10, Height: 8}}, a.Maps())
}

func TestRegistry_BoundarySize(t *testing.T) {
	a := quietAtlas()
	r := mustAddMap(t, a, "a", 10, 8)
	assert.Equal(t, 10, r.BoundarySize(types.Up))
	assert.Equal(t, 10, r.BoundarySize(types.Down))
	assert.Equal(t, 8, r.BoundarySize(types.Left))
	assert.Equal(t, 8, r.BoundarySize(types.Right))
}

func TestRegistry_LinkSymmetric(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)

	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

	got, ok := ra.LinkAt(types.Right)
	require.True(t, ok)
	assert.Equal(t, types.SideLink{Target: "b", TargetSide: types.Left}, got)

	back, ok := rb.LinkAt(types.Left)
	require.True(t, ok)
	assert.Equal(t, types.SideLink{Target: "a", TargetSide: types.Right}, back)
}

func TestRegistry_LinkAsymmetric(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)

	require.NoError(t, ra.Link(types.Right, rb, types.Left, false))

	_, ok := ra.LinkAt(types.Right)
	assert.True(t, ok)
	_, ok = rb.LinkAt(types.Left)
	assert.False(t, ok, "one-way link must not create the reverse")
}

func TestRegistry_LinkOverwrites(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	rc := mustAddMap(t, a, "c", 10, 8)

	require.NoError(t, ra.Link(types.Right, rb, types.Left, false))
	require.NoError(t, ra.Link(types.Right, rc, types.Right, false))

	got, ok := ra.LinkAt(types.Right)
	require.True(t, ok)
	assert.Equal(t, types.SideLink{Target: "c", TargetSide: types.Right}, got)
	assert.Len(t, ra.Links(), 1)
}

func TestRegistry_LinkThenUnlinkRoundTrip(t *testing.T) {
	for _, symmetric := range []bool{true, false} {
		name := "asymmetric"
		if symmetric {
			name = "symmetric"
		}
		t.Run(name, func(t *testing.T) {
			a := quietAtlas()
			ra := mustAddMap(t, a, "a", 10, 8)
			rb := mustAddMap(t, a, "b", 6, 10)
			require.NoError(t, ra.Link(types.Up, rb, types.Left, true))
			before := a.Links()

			require.NoError(t, ra.Link(types.Down, rb, types.Right, symmetric))
			ra.Unlink(types.Down, symmetric)

			assert.Equal(t, before, a.Links())
		})
	}
}

func TestRegistry_LinkShapeMismatch(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 7)
	require.NoError(t, ra.Link(types.Up, rb, types.Down, true))
	before := a.Links()

	err := ra.Link(types.Right, rb, types.Left, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrShapeMismatch)
	assert.Equal(t, before, a.Links(), "failed link must not change state")
}

func TestRegistry_LinkNilTargetUnlinks(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

	require.NoError(t, ra.Link(types.Right, nil, types.Left, true))

	assert.Empty(t, ra.Links())
	assert.Empty(t, rb.Links())
}

func TestRegistry_LinkInvalidDirection(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	err := ra.Link(0, ra, types.Up, true)
	assert.ErrorIs(t, err, types.ErrInvalidDirection)
	assert.Empty(t, ra.Links())
}

func TestRegistry_LinkAcrossAtlases(t *testing.T) {
	ra := mustAddMap(t, quietAtlas(), "a", 10, 8)
	rb := mustAddMap(t, quietAtlas(), "b", 10, 8)
	err := ra.Link(types.Right, rb, types.Left, true)
	assert.ErrorIs(t, err, types.ErrMapNotFound)
}

func TestRegistry_DestroyedSourceFails(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	require.NoError(t, a.RemoveMap("a"))

	err := ra.Link(types.Right, rb, types.Left, true)
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.True(t, ra.Destroyed())
	assert.Empty(t, rb.Links())
}

func TestRegistry_DestroyedTargetUnlinks(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	rc := mustAddMap(t, a, "c", 10, 8)
	require.NoError(t, ra.Link(types.Right, rc, types.Left, true))
	require.NoError(t, a.RemoveMap("b"))

	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

	assert.Empty(t, ra.Links())
	assert.Empty(t, rc.Links())
}

func TestRegistry_Unlink(t *testing.T) {
	t.Run("missing side is a no-op", func(t *testing.T) {
		a := quietAtlas()
		ra := mustAddMap(t, a, "a", 10, 8)
		ra.Unlink(types.Left, true)
		assert.Empty(t, ra.Links())
	})

	t.Run("symmetric removes the reverse", func(t *testing.T) {
		a := quietAtlas()
		ra := mustAddMap(t, a, "a", 10, 8)
		rb := mustAddMap(t, a, "b", 10, 8)
		require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

		ra.Unlink(types.Right, true)

		assert.Empty(t, ra.Links())
		assert.Empty(t, rb.Links())
	})

	t.Run("one-way keeps the reverse", func(t *testing.T) {
		a := quietAtlas()
		ra := mustAddMap(t, a, "a", 10, 8)
		rb := mustAddMap(t, a, "b", 10, 8)
		require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

		ra.Unlink(types.Right, false)

		assert.Empty(t, ra.Links())
		_, ok := rb.LinkAt(types.Left)
		assert.True(t, ok)
	})

	t.Run("symmetric does not cascade", func(t *testing.T) {
		a := quietAtlas()
		ra := mustAddMap(t, a, "a", 10, 8)
		rb := mustAddMap(t, a, "b", 10, 8)
		rc := mustAddMap(t, a, "c", 10, 8)
		require.NoError(t, ra.Link(types.Right, rb, types.Left, false))
		require.NoError(t, rb.Link(types.Left, rc, types.Right, false))
		require.NoError(t, rc.Link(types.Right, ra, types.Left, false))

		ra.Unlink(types.Right, true)

		assert.Empty(t, rb.Links())
		_, ok := rc.LinkAt(types.Right)
		assert.True(t, ok, "removal stops at the former target")
	})
}

func TestRegistry_Cycle(t *testing.T) {
	a := quietAtlas()
	r := mustAddMap(t, a, "torus", 12, 5)

	require.NoError(t, r.Cycle(true, true))

	assert.Equal(t, []types.Link{
		{FromMap: "torus", FromSide: types.Up, ToMap: "torus", ToSide: types.Down},
		{FromMap: "torus", FromSide: types.Down, ToMap: "torus", ToSide: types.Up},
		{FromMap: "torus", FromSide: types.Left, ToMap: "torus", ToSide: types.Right},
		{FromMap: "torus", FromSide: types.Right, ToMap: "torus", ToSide: types.Left},
	}, r.Links())
}

func TestRegistry_CycleOneAxis(t *testing.T) {
	a := quietAtlas()
	r := mustAddMap(t, a, "cylinder", 12, 5)

	require.NoError(t, r.Cycle(false, true))

	_, ok := r.LinkAt(types.Up)
	assert.False(t, ok)
	_, ok = r.LinkAt(types.Left)
	assert.True(t, ok)
	_, ok = r.LinkAt(types.Right)
	assert.True(t, ok)
}

func TestRegistry_UnlinkAll(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 8, 8)
	rb := mustAddMap(t, a, "b", 8, 8)
	require.NoError(t, ra.Link(types.Up, rb, types.Down, true))
	require.NoError(t, ra.Link(types.Left, rb, types.Up, true))
	require.NoError(t, ra.Link(types.Right, ra, types.Down, true))

	ra.UnlinkAll(true)

	for _, d := range types.AllDirections() {
		_, ok := ra.LinkAt(d)
		assert.False(t, ok, "side %s", d)
	}
	assert.Empty(t, a.Links())
}

func TestAtlas_RemoveMapUnlinksPartners(t *testing.T) {
	a := quietAtlas()
	mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	ra, _ := a.Registry("a")
	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

	require.NoError(t, a.RemoveMap("a"))

	_, ok := a.Registry("a")
	assert.False(t, ok)
	assert.Empty(t, rb.Links())
	assert.ErrorIs(t, a.RemoveMap("a"), types.ErrMapNotFound)
}

func TestRegistry_ValidateOnActivate(t *testing.T) {
	var buf bytes.Buffer
	a := NewAtlas(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	ra := mustAddMap(t, a, "a", 10, 8)
	mustAddMap(t, a, "b", 10, 8)
	mustAddMap(t, a, "narrow", 3, 3)

	ra.Restore(map[types.Direction]*types.SideLink{
		types.Up:           {Target: "b", TargetSide: types.Down},
		types.Down:         nil,
		types.Left:         {Target: "b", TargetSide: types.Direction(42)},
		types.Right:        {Target: "gone", TargetSide: types.Left},
		types.Direction(7): {Target: "b", TargetSide: types.Up},
	})
	assert.False(t, ra.Active())

	stale := ra.ValidateOnActivate()

	assert.True(t, ra.Active())
	assert.Equal(t, []types.Link{{FromMap: "a", FromSide: types.Up, ToMap: "b", ToSide: types.Down}}, ra.Links())
	require.Len(t, stale, 4)
	reasons := map[types.Direction]string{}
	for _, s := range stale {
		assert.ErrorIs(t, s, types.ErrStaleLink)
		reasons[s.Side] = s.Reason
	}
	assert.Equal(t, "missing link record", reasons[types.Down])
	assert.Equal(t, "unknown target side", reasons[types.Left])
	assert.Equal(t, "missing target map", reasons[types.Right])
	assert.Equal(t, "unknown side", reasons[types.Direction(7)])
	assert.Contains(t, buf.String(), "side link removed on activation")

	assert.Nil(t, ra.ValidateOnActivate(), "second activation is a no-op")
}

func TestRegistry_ValidateOnActivateBoundaryMismatch(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	mustAddMap(t, a, "b", 10, 6)
	ra.Restore(map[types.Direction]*types.SideLink{
		types.Right: {Target: "b", TargetSide: types.Left},
		types.Up:    {Target: "b", TargetSide: types.Down},
	})

	stale := ra.ValidateOnActivate()

	require.Len(t, stale, 1)
	assert.Equal(t, types.Right, stale[0].Side)
	assert.Equal(t, "boundary size mismatch", stale[0].Reason)
	assert.Equal(t, types.SideLink{Target: "b", TargetSide: types.Left}, stale[0].Link)
}

func TestAtlas_ResizeLazy(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))

	stale, err := a.Resize("b", 10, 6)
	require.NoError(t, err)

	assert.Empty(t, stale)
	assert.Len(t, a.Links(), 2, "lazy atlas keeps mismatched links")
	assert.Equal(t, 6, rb.Height())
}

func TestAtlas_ResizeEager(t *testing.T) {
	a := quietAtlas(WithEagerRevalidation(true))
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	require.NoError(t, ra.Link(types.Right, rb, types.Left, true))
	require.NoError(t, ra.Link(types.Up, rb, types.Down, true))

	stale, err := a.Resize("b", 10, 6)
	require.NoError(t, err)

	assert.Len(t, stale, 2)
	assert.Equal(t, []types.Link{
		{FromMap: "a", FromSide: types.Up, ToMap: "b", ToSide: types.Down},
		{FromMap: "b", FromSide: types.Down, ToMap: "a", ToSide: types.Up},
	}, a.Links())
}

func TestAtlas_ResizeErrors(t *testing.T) {
	a := quietAtlas()
	mustAddMap(t, a, "a", 10, 8)

	_, err := a.Resize("missing", 1, 1)
	assert.ErrorIs(t, err, types.ErrMapNotFound)
	_, err = a.Resize("a", -1, 1)
	assert.ErrorIs(t, err, types.ErrInvalidDimensions)
}

func TestAtlas_Activate(t *testing.T) {
	a := quietAtlas()
	ra := mustAddMap(t, a, "a", 10, 8)
	rb := mustAddMap(t, a, "b", 10, 8)
	ra.Restore(map[types.Direction]*types.SideLink{types.Right: {Target: "b", TargetSide: types.Left}})
	rb.Restore(map[types.Direction]*types.SideLink{types.Left: {Target: "nowhere", TargetSide: types.Right}})

	stale := a.Activate()

	require.Len(t, stale, 1)
	assert.Equal(t, types.MapID("b"), stale[0].Map)
	assert.True(t, ra.Active())
	assert.True(t, rb.Active())
	assert.Len(t, a.Links(), 1)
}
