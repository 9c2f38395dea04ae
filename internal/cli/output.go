package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/atlas/pkg/neighbour"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// staleJSON is the JSON form of a dropped link.
type staleJSON struct {
	Map        string `json:"map"`
	Side       string `json:"side"`
	Target     string `json:"target"`
	TargetSide string `json:"target_side"`
	Reason     string `json:"reason"`
}

// printStale reports links dropped by a revalidation.
func printStale(w io.Writer, jsonMode bool, stale []neighbour.StaleLink) error {
	if jsonMode {
		out := make([]staleJSON, 0, len(stale))
		for _, s := range stale {
			out = append(out, staleJSON{
				Map:        string(s.Map),
				Side:       s.Side.String(),
				Target:     string(s.Link.Target),
				TargetSide: s.Link.TargetSide.String(),
				Reason:     s.Reason,
			})
		}
		return printJSON(w, out)
	}
	for _, s := range stale {
		fmt.Fprintf(w, "dropped %s %s -> %s %s: %s\n", s.Map, s.Side, s.Link.Target, s.Link.TargetSide, s.Reason)
	}
	return nil
}
