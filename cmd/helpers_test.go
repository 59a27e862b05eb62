package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/mutaug/internal/domain"
	m "gooze.dev/pkg/mutaug/internal/model"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Run(ctx context.Context, args domain.RunArgs) (m.RunReport, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.RunReport), ret.Error(1)
}

func (w *mockWorkflow) List(ctx context.Context, args domain.PathArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) Merge(ctx context.Context, args domain.MergeArgs) (m.RunReport, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.RunReport), ret.Error(1)
}

// useWorkflow swaps the workflow factory for one returning wf and records
// the pipeline options it was asked to build.
func useWorkflow(t *testing.T, wf domain.Workflow) *[]*pipelineOptions {
	t.Helper()

	var requested []*pipelineOptions

	original := workflowFactory
	workflowFactory = func(_ context.Context, _ *cobra.Command, _ func(), options *pipelineOptions) (domain.Workflow, error) {
		requested = append(requested, options)
		return wf, nil
	}

	t.Cleanup(func() { workflowFactory = original })

	return &requested
}

// newTestRootCmd builds an isolated root command with the given subcommands.
// Logs go to a temporary file.
func newTestRootCmd(t *testing.T, subcommands ...*cobra.Command) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	viper.Set(logFilenameKey, filepath.Join(t.TempDir(), "mutaug.log"))

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(subcommands...)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}
