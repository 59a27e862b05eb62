// Package cmd provides the root command and CLI setup for mutaug.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutaug/internal/adapter"
	"gooze.dev/pkg/mutaug/internal/controller"
	"gooze.dev/pkg/mutaug/internal/domain"
	m "gooze.dev/pkg/mutaug/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var pythonAdapter adapter.PythonFileAdapter
var reportStore adapter.ReportStore

// workflowFactory builds the workflow for a command. Tests replace it.
var workflowFactory = newWorkflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// verboseFlag switches the log file to debug level.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalSourceFSAdapter()
	pythonAdapter = adapter.NewTreeSitterPythonAdapter()
	reportStore = adapter.NewReportStore()
}

const namingHelp = `Test files are paired with source files by name:
  - test_<name>.py  tests <name>.py
  - <name>_test.py  tests <name>.py`

const rootLongDescription = `mutaug strengthens a Python test suite with mutation testing. It runs a
mutmut-compatible engine over each source file, asks a synthesis backend for
a unittest method per surviving mutant, appends the methods to the matching
test class and verifies the result.

` + namingHelp

const runLongDescription = `Run the augmentation pipeline over a source and a test directory.

` + namingHelp

const listLongDescription = `List the source/test pairs a run would process.

` + namingHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutaug",
		Short: "Mutation-guided test augmentation for Python",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			defaultReportsDir,
			"output directory for run reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", nil, "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose, "write debug logs")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// pipelineOptions carries the run settings that shape the orchestrator.
// A nil *pipelineOptions builds a workflow for list, view and merge.
type pipelineOptions struct {
	backend          adapter.BackendConfig
	generateParallel int
	dryRun           bool
}

func newWorkflow(ctx context.Context, cmd *cobra.Command, interrupt func(), options *pipelineOptions) (domain.Workflow, error) {
	logger := globalLogger
	if logger == nil {
		logger = slog.Default()
	}

	ui := newUI(cmd.OutOrStdout(), interrupt)

	if options == nil {
		return domain.NewWorkflow(fsAdapter, reportStore, ui, nil, logger), nil
	}

	runner := adapter.NewLocalCommandRunner(logger)
	engine := adapter.NewLocalMutationEngineAdapter(runner, engineConfigFromViper(), logger)
	testRunner := adapter.NewLocalTestRunnerAdapter(runner, viper.GetString(verifyPythonKey), configSeconds(verifyTimeoutKey))

	backend, err := adapter.NewSynthesisBackend(ctx, options.backend, runner, logger)
	if err != nil {
		return nil, fmt.Errorf("create synthesis backend: %w", err)
	}

	orchestrator := domain.NewOrchestrator(domain.Stages{
		Extractor: domain.NewMutantExtractor(engine, logger),
		Locator:   domain.NewFunctionLocator(pythonAdapter, logger),
		Collector: domain.NewTestCollector(pythonAdapter, logger),
		Backend:   backend,
		Patcher:   domain.NewTestPatcher(pythonAdapter),
		Verifier:  domain.NewVerificationRunner(testRunner, engine, logger),
	}, fsAdapter, pythonAdapter, domain.OrchestratorOptions{
		GenerateParallel: options.generateParallel,
		DryRun:           options.dryRun,
	}, logger)

	return domain.NewWorkflow(fsAdapter, reportStore, ui, orchestrator, logger), nil
}

// newUI picks the live TUI for terminals and plain text otherwise.
func newUI(out io.Writer, interrupt func()) controller.UI {
	if controller.IsTerminal(out) {
		return controller.NewTUI(out, interrupt)
	}

	return controller.NewSimpleUI(out)
}

func reportsPath() m.Path {
	return m.Path(viper.GetString(outputFlagName))
}
