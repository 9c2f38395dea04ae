package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize atlas storage",
		Long:  "Create the configuration file and data directory, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			dataDir := backend.DataDir()
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(out, "data:   %s\n", dataDir)
			fmt.Fprintln(out, "Atlas initialized successfully")
			return nil
		},
	}
}
