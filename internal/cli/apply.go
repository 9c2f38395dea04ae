package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/layout"
	"github.com/mesh-intelligence/atlas/internal/sim"
	"github.com/mesh-intelligence/atlas/pkg/neighbour"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// loadLayout reads a layout file, reporting bad files as user errors.
func loadLayout(path string) (*layout.Layout, error) {
	l, err := layout.Load(path)
	if err != nil {
		return nil, userError{err}
	}
	return l, nil
}

// applyLayout merges a layout into the stored atlas and returns the links
// dropped because a map was resized under them.
func (a *app) applyLayout(l *layout.Layout) ([]neighbour.StaleLink, error) {
	backend, err := a.attachBackend()
	if err != nil {
		return nil, err
	}
	defer backend.Detach()

	opts := append(a.atlasOptions(), neighbour.WithEagerRevalidation(true))
	at, _, err := backend.Restore(opts...)
	if err != nil {
		return nil, fmt.Errorf("restore atlas: %w", err)
	}

	var stale []neighbour.StaleLink
	for _, m := range l.Maps {
		if _, ok := at.Registry(m.ID); !ok {
			continue
		}
		dropped, err := at.Resize(m.ID, m.Width, m.Height)
		if err != nil {
			return nil, asUserError(err)
		}
		stale = append(stale, dropped...)
	}
	if err := l.Apply(at); err != nil {
		return nil, asUserError(err)
	}
	if err := backend.Snapshot(at); err != nil {
		return nil, fmt.Errorf("save atlas: %w", err)
	}
	return stale, nil
}

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <layout.yaml>",
		Short: "Add the maps and links of a layout file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout(args[0])
			if err != nil {
				return err
			}
			stale, err := a.applyLayout(l)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printStale(cmd.OutOrStdout(), true, stale)
			}
			if err := printStale(cmd.OutOrStdout(), false, stale); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d maps, %d links, %d cycles\n",
				len(l.Maps), len(l.Links), len(l.Cycles))
			return nil
		},
	}
}

// parseMoves parses a comma-separated list of directions.
func parseMoves(s string) ([]types.Direction, error) {
	var moves []types.Direction
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := parseSide(part)
		if err != nil {
			return nil, err
		}
		moves = append(moves, d)
	}
	return moves, nil
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		bodyID string
		moves  string
		fade   int
	)
	cmd := &cobra.Command{
		Use:   "simulate <layout.yaml>",
		Short: "Walk a body of a layout file through a list of moves",
		Long: "Build the maps, links and bodies of a layout file in memory and move one\n" +
			"body a cell at a time, teleporting it whenever it walks off a linked edge.\n" +
			"The store is not read or written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout(args[0])
			if err != nil {
				return err
			}
			dirs, err := parseMoves(moves)
			if err != nil {
				return err
			}

			at := neighbour.NewAtlas(a.atlasOptions()...)
			if err := l.Apply(at); err != nil {
				return asUserError(err)
			}
			w := sim.NewWorld(at, sim.WithWorldLogger(a.logger))
			if err := l.Populate(w); err != nil {
				return asUserError(err)
			}
			body, ok := w.Body(bodyID)
			if !ok {
				return userErrorf("body %q: %w", bodyID, sim.ErrUnknownBody)
			}
			w.Connect(neighbour.NewTeleporter(at, neighbour.WithHook(w.FadeHook(fade))))

			var steps []sim.Step
			for _, d := range dirs {
				// Moves given while the body is in transit wait for it to land.
				for body.Detached() && w.Pending() > 0 {
					steps = append(steps, w.Step()...)
				}
				if err := w.Move(bodyID, d); err != nil {
					return err
				}
				steps = append(steps, w.Step()...)
			}
			for w.Pending() > 0 {
				steps = append(steps, w.Step()...)
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), stepsJSON(steps))
			}
			for _, s := range steps {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyID, "body", "", "id of the body to move")
	cmd.Flags().StringVar(&moves, "moves", "", "comma-separated directions, e.g. right,right,up")
	cmd.Flags().IntVar(&fade, "fade", 0, "steps a teleported body spends in transit")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

type stepJSON struct {
	Body      string `json:"body"`
	Direction string `json:"direction"`
	Blocked   bool   `json:"blocked"`
	Outcome   string `json:"outcome"`
	Map       string `json:"map"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

func stepsJSON(steps []sim.Step) []stepJSON {
	out := make([]stepJSON, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepJSON{
			Body:      s.Body,
			Direction: s.Direction.String(),
			Blocked:   s.Blocked,
			Outcome:   s.Outcome.String(),
			Map:       string(s.Map),
			X:         s.X,
			Y:         s.Y,
		})
	}
	return out
}

func newWatchCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch <layout.yaml>",
		Short: "Apply a layout file every time it changes",
		Long: "Apply a layout file now and again every time it is written, printing the\n" +
			"links dropped because a map was resized. Stops on interrupt.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			w, err := layout.NewWatcher(path)
			if err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			apply := func() {
				l, err := layout.Load(path)
				if err == nil {
					var stale []neighbour.StaleLink
					stale, err = a.applyLayout(l)
					if err == nil {
						_ = printStale(out, a.jsonMode, stale)
						if !a.jsonMode {
							fmt.Fprintf(out, "applied %s\n", path)
						}
						return
					}
				}
				a.logger.Error("layout not applied", "path", path, "error", err)
			}

			apply()
			ctx := cmd.Context()
			for applied := 0; count <= 0 || applied < count; {
				select {
				case _, ok := <-w.Events:
					if !ok {
						return nil
					}
					apply()
					applied++
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					a.logger.Warn("watch error", "path", path, "error", err)
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many changes (0: run until interrupted)")
	return cmd
}
