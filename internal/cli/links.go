package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

func newLinkCmd(a *app) *cobra.Command {
	var oneWay bool
	cmd := &cobra.Command{
		Use:   "link <from> <side> <to> <side>",
		Short: "Link a side of one map to a side of another",
		Long: "Link a side of one map to a side of another. Both sides must have the same\n" +
			"length. The reverse link is created too unless --one-way is given.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromSide, err := parseSide(args[1])
			if err != nil {
				return err
			}
			toSide, err := parseSide(args[3])
			if err != nil {
				return err
			}
			return a.withAtlas(func(at *neighbour.Atlas) error {
				from, err := registry(at, args[0])
				if err != nil {
					return err
				}
				to, err := registry(at, args[2])
				if err != nil {
					return err
				}
				return asUserError(from.Link(fromSide, to, toSide, !oneWay))
			})
		},
	}
	cmd.Flags().BoolVar(&oneWay, "one-way", false, "do not create the reverse link")
	return cmd
}

func newUnlinkCmd(a *app) *cobra.Command {
	var oneWay, all bool
	cmd := &cobra.Command{
		Use:   "unlink <map> [side]",
		Short: "Remove the link at a side of a map",
		Long: "Remove the link at a side of a map, and the link stored at the side it led\n" +
			"to unless --one-way is given. With --all, every side of the map is unlinked.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 2) {
				return userErrorf("give either a side or --all")
			}
			var side types.Direction
			if !all {
				var err error
				if side, err = parseSide(args[1]); err != nil {
					return err
				}
			}
			return a.withAtlas(func(at *neighbour.Atlas) error {
				r, err := registry(at, args[0])
				if err != nil {
					return err
				}
				if all {
					r.UnlinkAll(!oneWay)
					return nil
				}
				r.Unlink(side, !oneWay)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&oneWay, "one-way", false, "leave the reverse link in place")
	cmd.Flags().BoolVar(&all, "all", false, "unlink every side")
	return cmd
}

func newCycleCmd(a *app) *cobra.Command {
	var vertical, horizontal bool
	cmd := &cobra.Command{
		Use:   "cycle <map>",
		Short: "Link a map to itself so objects wrap around",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAtlas(func(at *neighbour.Atlas) error {
				r, err := registry(at, args[0])
				if err != nil {
					return err
				}
				return asUserError(r.Cycle(vertical, horizontal))
			})
		},
	}
	cmd.Flags().BoolVar(&vertical, "vertical", true, "link up with down")
	cmd.Flags().BoolVar(&horizontal, "horizontal", true, "link left with right")
	return cmd
}

// showOutput is the JSON form of the show command.
type showOutput struct {
	Maps  []types.MapRecord `json:"maps"`
	Links []types.Link      `json:"links"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [map]",
		Short: "Print maps and their link tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			at, _, err := backend.Restore(a.atlasOptions()...)
			if err != nil {
				return fmt.Errorf("restore atlas: %w", err)
			}

			out := showOutput{Maps: at.Maps(), Links: at.Links()}
			if len(args) == 1 {
				r, err := registry(at, args[0])
				if err != nil {
					return err
				}
				out.Maps = []types.MapRecord{{ID: r.ID(), Width: r.Width(), Height: r.Height()}}
				out.Links = r.Links()
			}
			if out.Links == nil {
				out.Links = []types.Link{}
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printShow(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func printShow(w io.Writer, out showOutput) {
	byMap := make(map[types.MapID][]types.Link)
	for _, l := range out.Links {
		byMap[l.FromMap] = append(byMap[l.FromMap], l)
	}
	for _, m := range out.Maps {
		fmt.Fprintf(w, "%s %dx%d\n", m.ID, m.Width, m.Height)
		for _, l := range byMap[m.ID] {
			fmt.Fprintf(w, "  %-5s -> %s %s\n", l.FromSide, l.ToMap, l.ToSide)
		}
	}
}
