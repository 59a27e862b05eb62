package cmd

import (
	"github.com/spf13/cobra"

	"gooze.dev/pkg/mutaug/internal/domain"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge sharded run reports into a single report",
		Long:  "Merge the reports of shard_* subdirectories into one report in the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := workflowFactory(cmd.Context(), cmd, nil, nil)
			if err != nil {
				return err
			}

			_, err = wf.Merge(cmd.Context(), domain.MergeArgs{Reports: reportsPath()})

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
