package cmd

import (
	"github.com/spf13/cobra"
)

var listSourceFlag string
var listTestsFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List source/test pairs",
		Long:  listLongDescription,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindPathFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := workflowFactory(cmd.Context(), cmd, nil, nil)
			if err != nil {
				return err
			}

			return wf.List(cmd.Context(), pathArgs())
		},
	}

	configurePathFlags(cmd, &listSourceFlag, &listTestsFlag)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
