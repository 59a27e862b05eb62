package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutaug/internal/adapter"
	"gooze.dev/pkg/mutaug/internal/domain"
	m "gooze.dev/pkg/mutaug/internal/model"
)

var runSourceFlag string
var runTestsFlag string
var runParallelFlag int
var runGenerateParallelFlag int
var runShardFlag string
var runDryRunFlag bool
var runFailOnUnverifiedFlag bool
var runBackendFlag string
var runProviderFlag string
var runModelFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate tests for surviving mutants",
		Long:  runLongDescription,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindPathFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			options := runPipelineOptions()

			wf, err := workflowFactory(ctx, cmd, cancel, &options)
			if err != nil {
				return err
			}

			shardIndex, shardCount := parseShardFlag(runShardFlag)

			report, err := wf.Run(ctx, domain.RunArgs{
				PathArgs:         pathArgs(),
				Reports:          reportsPath(),
				Parallel:         viper.GetInt(runParallelConfigKey),
				GenerateParallel: options.generateParallel,
				ShardIndex:       shardIndex,
				ShardCount:       shardCount,
				Backend:          string(options.backend.Kind),
			})
			if err != nil {
				return err
			}

			if viper.GetBool(failOnUnverifiedConfigKey) && report.Summary.Unverified > 0 {
				return fmt.Errorf("%d patched test files failed verification", report.Summary.Unverified)
			}

			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	configurePathFlags(cmd, &runSourceFlag, &runTestsFlag)

	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", defaultRunParallel, "number of source/test pairs processed in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().IntVar(&runGenerateParallelFlag, generateParallelFlagName, defaultGenerateParallel, "number of concurrent backend calls per pair")
	bindFlagToConfig(cmd.Flags().Lookup(generateParallelFlagName), generateParallelConfigKey)

	cmd.Flags().StringVarP(&runShardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	cmd.Flags().BoolVar(&runDryRunFlag, dryRunFlagName, false, "print the patch as a diff instead of writing test files")
	bindFlagToConfig(cmd.Flags().Lookup(dryRunFlagName), dryRunConfigKey)

	cmd.Flags().BoolVar(&runFailOnUnverifiedFlag, failOnUnverifiedFlagName, false, "exit non-zero when a patched test file fails verification")
	bindFlagToConfig(cmd.Flags().Lookup(failOnUnverifiedFlagName), failOnUnverifiedConfigKey)

	cmd.Flags().StringVarP(&runBackendFlag, backendFlagName, "b", string(adapter.BackendCompletion), "synthesis backend: completion, editor, cli or canned")
	bindFlagToConfig(cmd.Flags().Lookup(backendFlagName), backendKindKey)

	cmd.Flags().StringVar(&runProviderFlag, providerFlagName, adapter.ProviderOpenAI, "completion provider: openai or gemini")
	bindFlagToConfig(cmd.Flags().Lookup(providerFlagName), backendProviderKey)

	cmd.Flags().StringVar(&runModelFlag, modelFlagName, "", "completion model name")
	bindFlagToConfig(cmd.Flags().Lookup(modelFlagName), backendModelKey)
}

// configurePathFlags adds the --source and --tests flags shared by run and list.
func configurePathFlags(cmd *cobra.Command, source, tests *string) {
	cmd.Flags().StringVar(source, sourceFlagName, defaultSourceDir, "directory with the Python source files")
	cmd.Flags().StringVar(tests, testsFlagName, defaultTestsDir, "directory with the Python test files")
}

// bindPathFlags points the path config keys at the flags of the command
// being executed. Several commands define the same flags, so binding happens
// at run time rather than at definition.
func bindPathFlags(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(sourceFlagName), sourceConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(testsFlagName), testsConfigKey)
}

func pathArgs() domain.PathArgs {
	return domain.PathArgs{
		SourceDir: m.Path(viper.GetString(sourceConfigKey)),
		TestDir:   m.Path(viper.GetString(testsConfigKey)),
		Exclude:   viper.GetStringSlice(excludeConfigKey),
	}
}

// runPipelineOptions reads the orchestrator settings. An interactive backend
// always generates one test at a time.
func runPipelineOptions() pipelineOptions {
	options := pipelineOptions{
		backend:          backendConfigFromViper(),
		generateParallel: viper.GetInt(generateParallelConfigKey),
		dryRun:           viper.GetBool(dryRunConfigKey),
	}

	if options.backend.Interactive() || options.generateParallel < 1 {
		options.generateParallel = 1
	}

	if options.backend.Kind == "" {
		options.backend.Kind = adapter.BackendCompletion
	}

	return options
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
