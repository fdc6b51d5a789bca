package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaborage/dataapi-go/resources"
	"github.com/gaborage/dataapi-go/validation"
)

// requestModels are the request bodies the schema command can describe.
var requestModels = map[string]any{
	"workflow-create": resources.WorkflowCreateRequest{},
	"workflow-update": resources.WorkflowUpdateRequest{},
	"execution":       resources.ExecutionRequest{},
	"project":         resources.ProjectRequest{},
	"connection":      resources.ConnectionConfig{},
	"query":           resources.QueryRequest{},
	"text":            resources.TextRequest{},
	"embedding":       resources.EmbeddingRequest{},
	"user-create":     resources.UserCreateRequest{},
	"user-update":     resources.UserUpdateRequest{},
	"page":            resources.PageRequest{},
}

func modelNames() []string {
	names := make([]string, 0, len(requestModels))
	for name := range requestModels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [MODEL]",
		Short: "Describe request bodies and their validation rules",
		Long: `Without arguments lists the known request models. With a model name prints
each JSON field, its Go type and the rules checked before a request is sent.`,
		Example: `  dataapi schema
  dataapi schema workflow-create`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: modelNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range modelNames() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			model, ok := requestModels[args[0]]
			if !ok {
				return fmt.Errorf("unknown model %q (known: %s)", args[0], strings.Join(modelNames(), ", "))
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tRULES")
			for _, f := range validation.Describe(model) {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.JSONName, f.Type, f.Required, f.Rules())
			}
			return tw.Flush()
		},
	}
}
