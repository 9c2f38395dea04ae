package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

func newMapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage maps",
	}
	cmd.AddCommand(newMapAddCmd(a))
	cmd.AddCommand(newMapListCmd(a))
	cmd.AddCommand(newMapResizeCmd(a))
	cmd.AddCommand(newMapRemoveCmd(a))
	return cmd
}

// parseDimensions parses width and height arguments.
func parseDimensions(w, h string) (int, int, error) {
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, userErrorf("width %q: %w", w, types.ErrInvalidDimensions)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, userErrorf("height %q: %w", h, types.ErrInvalidDimensions)
	}
	return width, height, nil
}

func newMapAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add [id] <width> <height>",
		Short: "Add a map; without an id, one is generated",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id types.MapID
			if len(args) == 3 {
				id, args = types.MapID(args[0]), args[1:]
			}
			width, height, err := parseDimensions(args[0], args[1])
			if err != nil {
				return err
			}

			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			if id != "" {
				if _, err := backend.GetMap(id); err == nil {
					return userErrorf("map %s: %w", id, types.ErrDuplicateMap)
				}
			}
			id, err = backend.SaveMap(types.MapRecord{ID: id, Width: width, Height: height})
			if err != nil {
				return asUserError(err)
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), types.MapRecord{ID: id, Width: width, Height: height})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newMapListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			maps, err := backend.ListMaps()
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), maps)
			}
			for _, m := range maps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\n", m.ID, m.Width, m.Height)
			}
			return nil
		},
	}
}

func newMapResizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <id> <width> <height>",
		Short: "Change the size of a map",
		Long: "Change the size of a map. Links whose boundary sizes no longer match are\n" +
			"dropped now when revalidate_on_resize is set, otherwise the next time the\n" +
			"atlas is loaded.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := parseDimensions(args[1], args[2])
			if err != nil {
				return err
			}
			return a.withAtlas(func(at *neighbour.Atlas) error {
				stale, err := at.Resize(types.MapID(args[0]), width, height)
				if err != nil {
					return asUserError(err)
				}
				return printStale(cmd.OutOrStdout(), a.jsonMode, stale)
			})
		},
	}
}

func newMapRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a map and unlink its sides",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAtlas(func(at *neighbour.Atlas) error {
				return asUserError(at.RemoveMap(types.MapID(args[0])))
			})
		},
	}
}
