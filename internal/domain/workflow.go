package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/mutaug/internal/adapter"
	"gooze.dev/pkg/mutaug/internal/controller"
	m "gooze.dev/pkg/mutaug/internal/model"
	"gooze.dev/pkg/mutaug/pkg"
)

// Messages shown when a run cannot start.
const (
	MsgNoSourceFiles = "Could not find Python files in the source directory."
	MsgNoTestFiles   = "Could not find Python files in the test directory."
	MsgNoMappings    = "Could not map test files to source files. Make sure they follow naming conventions."
	MsgNotDirectory  = "The source and test paths must be directories."
)

var (
	errNoSourceFiles = errors.New("no python files in source directory")
	errNoTestFiles   = errors.New("no python files in test directory")
	errNoMappings    = errors.New("no test file matches a source file")
	errNoShards      = errors.New("no shard reports found")
	errNotDirectory  = errors.New("not a directory")
)

// PathArgs locates the project being augmented.
type PathArgs struct {
	SourceDir m.Path
	TestDir   m.Path
	Exclude   []string
}

// RunArgs contains the arguments for an augmentation run.
type RunArgs struct {
	PathArgs
	// RunID tags the report; a fresh one is generated when empty.
	RunID            string
	Reports          m.Path
	Parallel         int
	GenerateParallel int
	ShardIndex       int
	ShardCount       int
	Backend          string
}

// ViewArgs contains the arguments for showing a saved report.
type ViewArgs struct {
	Reports m.Path
}

// MergeArgs contains the arguments for merging shard reports.
type MergeArgs struct {
	Reports m.Path
}

// Workflow runs the augmentation pipeline over a project.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.RunReport, error)
	List(ctx context.Context, args PathArgs) error
	View(ctx context.Context, args ViewArgs) error
	Merge(ctx context.Context, args MergeArgs) (m.RunReport, error)
}

type workflow struct {
	adapter.ReportStore
	adapter.SourceFSAdapter
	controller.UI
	Orchestrator

	logger *slog.Logger
	now    func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	orchestrator Orchestrator,
	logger *slog.Logger,
) Workflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		Orchestrator:    orchestrator,
		logger:          logger,
		now:             time.Now,
	}
}

func (w *workflow) Run(ctx context.Context, args RunArgs) (m.RunReport, error) {
	if args.RunID == "" {
		args.RunID = uuid.NewString()
	}

	logger := w.logger.With("run", args.RunID)

	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		logger.Error("Failed to start workflow UI", "error", err)
		return m.RunReport{}, err
	}
	defer w.Close(ctx)

	report := m.RunReport{
		RunID:     args.RunID,
		SourceDir: args.SourceDir,
		TestDir:   args.TestDir,
		StartedAt: w.now(),
		Backend:   args.Backend,
	}

	mappings, err := w.collectMappings(ctx, args.PathArgs)
	if err != nil {
		w.displayFailure(ctx, err)
		logger.Error("Failed to collect source/test pairs", "error", err)

		return report, err
	}

	mappings = ShardMappings(mappings, args.ShardIndex, args.ShardCount)
	if args.ShardCount > 1 {
		report.Shard = fmt.Sprintf("%d/%d", args.ShardIndex, args.ShardCount)
	}

	parallel := max(args.Parallel, 1)

	w.DisplayConcurrencyInfo(ctx, controller.ConcurrencyInfo{
		Parallel:         parallel,
		GenerateParallel: max(args.GenerateParallel, 1),
		ShardIndex:       args.ShardIndex,
		ShardCount:       args.ShardCount,
		Mappings:         len(mappings),
	})

	logger.Info("Processing source/test pairs", "pairs", len(mappings), "parallel", parallel, "shard", report.Shard)

	outcomes, runErr := w.augmentAll(ctx, mappings, parallel, logger)

	report.FinishedAt = w.now()
	report.Outcomes = outcomes

	for _, outcome := range outcomes {
		report.Summary.Add(outcome)
	}

	if err := w.saveReport(args, report); err != nil {
		logger.Error("Failed to save report", "error", err)
		return report, fmt.Errorf("save report: %w", err)
	}

	w.DisplayReport(ctx, report)
	w.Wait(ctx)

	logger.Info("Run finished", "mappings", report.Summary.Mappings, "improved", report.Summary.Improved,
		"unverified", report.Summary.Unverified)

	return report, runErr
}

// augmentAll runs the orchestrator over mappings with at most parallel pairs
// in flight. Outcomes are spooled to disk and returned sorted by test path.
func (w *workflow) augmentAll(ctx context.Context, mappings []m.Mapping, parallel int, logger *slog.Logger) ([]m.MappingOutcome, error) {
	spill, err := pkg.NewFileSpill[m.MappingOutcome]("", logger)
	if err != nil {
		return nil, fmt.Errorf("create outcome spill: %w", err)
	}

	defer func() {
		if err := spill.Remove(); err != nil {
			logger.Warn("Failed to remove outcome spill", "path", spill.Path(), "error", err)
		}
	}()

	var group errgroup.Group
	group.SetLimit(parallel)

	for _, mapping := range mappings {
		if ctx.Err() != nil {
			logger.Warn("Run cancelled, not scheduling remaining pairs")
			break
		}

		group.Go(func() error {
			w.DisplayStartingMapping(ctx, mapping)

			outcome := w.Augment(ctx, mapping)

			w.DisplayCompletedMapping(ctx, outcome)

			if err := spill.Append(outcome); err != nil {
				return fmt.Errorf("record outcome for %s: %w", mapping.Test.Path, err)
			}

			return nil
		})
	}

	runErr := group.Wait()

	outcomes := make([]m.MappingOutcome, 0, spill.Len())

	if err := spill.Range(func(_ uint64, outcome m.MappingOutcome) error {
		outcomes = append(outcomes, outcome)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}

	sortOutcomes(outcomes)

	if runErr == nil {
		runErr = ctx.Err()
	}

	return outcomes, runErr
}

func (w *workflow) saveReport(args RunArgs, report m.RunReport) error {
	if args.Reports == "" {
		return nil
	}

	dir := args.Reports
	if args.ShardCount > 1 {
		dir = adapter.ShardDir(args.Reports, args.ShardIndex)
	}

	return w.SaveReport(dir, report)
}

func (w *workflow) List(ctx context.Context, args PathArgs) error {
	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		w.logger.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	mappings, err := w.collectMappings(ctx, args)
	if err != nil {
		w.displayFailure(ctx, err)
		return err
	}

	w.DisplayMappings(ctx, mappings)

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		w.logger.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	report, err := w.LoadReport(args.Reports)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	w.DisplayReport(ctx, report)

	return nil
}

func (w *workflow) Merge(ctx context.Context, args MergeArgs) (m.RunReport, error) {
	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		w.logger.Error("Failed to start workflow UI", "error", err)
		return m.RunReport{}, err
	}
	defer w.Close(ctx)

	dirs, err := w.ShardDirs(args.Reports)
	if err != nil {
		return m.RunReport{}, fmt.Errorf("list shard reports: %w", err)
	}

	if len(dirs) == 0 {
		return m.RunReport{}, fmt.Errorf("%w in %s", errNoShards, args.Reports)
	}

	shards := make([]m.RunReport, 0, len(dirs))

	for _, dir := range dirs {
		report, err := w.LoadReport(dir)
		if err != nil {
			return m.RunReport{}, fmt.Errorf("load shard report: %w", err)
		}

		shards = append(shards, report)
	}

	merged := MergeReports(uuid.NewString(), shards)
	if err := w.SaveReport(args.Reports, merged); err != nil {
		return merged, fmt.Errorf("save merged report: %w", err)
	}

	w.logger.Info("Merged shard reports", "shards", len(shards), "mappings", merged.Summary.Mappings)
	w.DisplayReport(ctx, merged)

	return merged, nil
}

// collectMappings discovers the source and test files and pairs them.
func (w *workflow) collectMappings(ctx context.Context, args PathArgs) ([]m.Mapping, error) {
	for _, dir := range []m.Path{args.SourceDir, args.TestDir} {
		if err := w.checkDirectory(ctx, dir); err != nil {
			return nil, err
		}
	}

	sourcePaths, err := w.ListFiles(ctx, args.SourceDir, m.SourceExtension, args.Exclude...)
	if err != nil {
		return nil, fmt.Errorf("list source files: %w", err)
	}

	if len(sourcePaths) == 0 {
		return nil, &m.Error{Kind: m.KindDirectoryMissing, Op: "discover", Path: args.SourceDir, Err: errNoSourceFiles}
	}

	testPaths, err := w.ListFiles(ctx, args.TestDir, m.SourceExtension, args.Exclude...)
	if err != nil {
		return nil, fmt.Errorf("list test files: %w", err)
	}

	if len(testPaths) == 0 {
		return nil, &m.Error{Kind: m.KindDirectoryMissing, Op: "discover", Path: args.TestDir, Err: errNoTestFiles}
	}

	sources := make([]m.SourceUnit, 0, len(sourcePaths))

	for _, path := range sourcePaths {
		content, err := w.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read source file %s: %w", path, err)
		}

		sources = append(sources, m.SourceUnit{Path: path, Content: string(content)})
	}

	tests := make([]m.TestUnit, 0, len(testPaths))

	for _, path := range testPaths {
		content, err := w.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read test file %s: %w", path, err)
		}

		tests = append(tests, m.TestUnit{Path: path, Content: string(content)})
	}

	mappings := MapFiles(sources, tests)
	if len(mappings) == 0 {
		return nil, m.NewError(m.KindMappingGap, "map", errNoMappings)
	}

	return mappings, nil
}

// checkDirectory fails when path exists but is not a directory. A missing
// path is left to discovery, which reports it as holding no files.
func (w *workflow) checkDirectory(ctx context.Context, path m.Path) error {
	info, err := w.FileInfo(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return &m.Error{Kind: m.KindDirectoryMissing, Op: "discover", Path: path, Err: err}
	}

	if !info.IsDir() {
		return &m.Error{Kind: m.KindDirectoryMissing, Op: "discover", Path: path, Err: errNotDirectory}
	}

	return nil
}

func (w *workflow) displayFailure(ctx context.Context, err error) {
	switch {
	case errors.Is(err, errNoSourceFiles):
		w.DisplayMessage(ctx, MsgNoSourceFiles)
	case errors.Is(err, errNoTestFiles):
		w.DisplayMessage(ctx, MsgNoTestFiles)
	case errors.Is(err, errNoMappings):
		w.DisplayMessage(ctx, MsgNoMappings)
	case m.IsKind(err, m.KindDirectoryMissing):
		w.DisplayMessage(ctx, MsgNotDirectory)
	default:
		w.DisplayMessage(ctx, err.Error())
	}
}

// ShardMappings keeps the mappings whose position modulo shardCount equals
// shardIndex. A shardCount below 2 keeps everything.
func ShardMappings(mappings []m.Mapping, shardIndex, shardCount int) []m.Mapping {
	if shardCount < 2 {
		return mappings
	}

	var shard []m.Mapping

	for i, mapping := range mappings {
		if i%shardCount == shardIndex {
			shard = append(shard, mapping)
		}
	}

	return shard
}

// MergeReports combines shard reports into a single report with runID.
func MergeReports(runID string, shards []m.RunReport) m.RunReport {
	merged := m.RunReport{RunID: runID}

	for i, shard := range shards {
		if i == 0 {
			merged.SourceDir = shard.SourceDir
			merged.TestDir = shard.TestDir
			merged.Backend = shard.Backend
			merged.StartedAt = shard.StartedAt
			merged.FinishedAt = shard.FinishedAt
		}

		if shard.StartedAt.Before(merged.StartedAt) {
			merged.StartedAt = shard.StartedAt
		}

		if shard.FinishedAt.After(merged.FinishedAt) {
			merged.FinishedAt = shard.FinishedAt
		}

		merged.Outcomes = append(merged.Outcomes, shard.Outcomes...)
	}

	sortOutcomes(merged.Outcomes)

	for _, outcome := range merged.Outcomes {
		merged.Summary.Add(outcome)
	}

	return merged
}

func sortOutcomes(outcomes []m.MappingOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Test < outcomes[j].Test
	})
}
