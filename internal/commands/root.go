// Package commands implements the dataapi diagnostics CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	dataapi "github.com/gaborage/dataapi-go"
	"github.com/gaborage/dataapi-go/config"
	"github.com/gaborage/dataapi-go/logger"
)

// RootOptions holds the flags shared by every command
type RootOptions struct {
	ConfigFile string
	BaseURL    string
	Verbose    bool

	environ    func() []string
	clientOpts []dataapi.Option
}

// NewRootCommand creates the dataapi command tree
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &RootOptions{environ: os.Environ})
}

func newRootCommand(version string, opts *RootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dataapi",
		Short: "Inspect and exercise a DataAPI server",
		Long: `Command line companion of the DataAPI Go SDK.

Configuration is read from dataapi.yaml (or --config), DATAAPI_* environment
variables and flags, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (default dataapi.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "Override client.baseurl")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests at debug level")

	rootCmd.AddCommand(
		NewVersionCommand(version),
		newHealthCommand(opts),
		newWorkflowsCommand(opts),
		newConfigCommand(opts),
		NewSchemaCommand(),
	)
	return rootCmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	var loadOpts []config.LoadOption
	if o.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithFile(o.ConfigFile))
	}
	if o.environ != nil {
		loadOpts = append(loadOpts, config.WithEnviron(o.environ))
	}
	overrides := map[string]any{}
	if o.BaseURL != "" {
		overrides["client.baseurl"] = o.BaseURL
	}
	if o.Verbose {
		overrides["log.level"] = "debug"
	}
	loadOpts = append(loadOpts, config.WithOverrides(overrides))
	return config.Load(loadOpts...)
}

func (o *RootOptions) newClient(cmd *cobra.Command) (*dataapi.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so command output stays machine readable.
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty, nil)
	opts := append([]dataapi.Option{dataapi.WithLogger(log)}, o.clientOpts...)
	return dataapi.New(cfg, opts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
