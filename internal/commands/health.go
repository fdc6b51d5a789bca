package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(opts *RootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable and healthy",
		Long: `Pings the server, then prints its health report and version.

Exits non-zero when the server is unreachable or reports a status other than UP.`,
		Example: `  # Check the configured server
  dataapi health

  # Check another server
  dataapi health --base-url https://dataapi.example.com/api`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if up, err := client.Ping(ctx); !up {
				return fmt.Errorf("server unreachable: %w", err)
			}
			health, err := client.Health(ctx)
			if err != nil {
				return err
			}
			version, err := client.Version(ctx)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(out, map[string]any{"health": health, "version": version})
			}
			fmt.Fprintf(out, "Status:  %s\n", health.Status)
			fmt.Fprintf(out, "Version: %s\n", version.Version)
			if !health.Up() {
				return fmt.Errorf("server reports status %q", health.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw reports as JSON")
	return cmd
}
