package cmd

import (
	"github.com/spf13/cobra"

	"gooze.dev/pkg/mutaug/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the last saved run report",
		Long:  "View the run report saved in the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := workflowFactory(cmd.Context(), cmd, nil, nil)
			if err != nil {
				return err
			}

			return wf.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath()})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
