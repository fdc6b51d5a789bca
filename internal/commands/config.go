package commands

import (
	"github.com/spf13/cobra"
)

func newConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Long: `Loads the configuration the same way the client does and prints every
resolved key. Tokens, passwords and keys are masked.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg.Redacted())
		},
	}
}
