package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaborage/dataapi-go/resources"
)

// WorkflowListOptions holds options for workflows list
type WorkflowListOptions struct {
	ProjectID string
	Page      int
	Size      int
	JSON      bool
}

func newWorkflowsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Work with workflows",
	}
	cmd.AddCommand(newWorkflowsListCommand(opts), newWorkflowsStatusCommand(opts))
	return cmd
}

func newWorkflowsListCommand(opts *RootOptions) *cobra.Command {
	list := &WorkflowListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List one page of workflows",
		Example: `  dataapi workflows list --project p-42 --size 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Workflows.Page(cmd.Context(),
				resources.WorkflowQuery{ProjectID: list.ProjectID},
				resources.PageRequest{Page: list.Page, Size: list.Size},
			)
			if err != nil {
				return err
			}
			if list.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPROJECT")
			for _, wf := range res.Content {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", wf.ID, wf.Name, wf.Status, wf.ProjectID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d total\n", res.PageNumber+1, max(res.TotalPages, 1), res.TotalElements)
			return nil
		},
	}

	cmd.Flags().StringVarP(&list.ProjectID, "project", "p", "", "Only workflows of this project")
	cmd.Flags().IntVar(&list.Page, "page", 0, "Zero based page number")
	cmd.Flags().IntVar(&list.Size, "size", 0, "Page size (default 20)")
	cmd.Flags().BoolVar(&list.JSON, "json", false, "Print the page as JSON")
	return cmd
}

func newWorkflowsStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status TASK_ID",
		Short: "Show the status of a workflow run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Workflows.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}
