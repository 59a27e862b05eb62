package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// ReportFileName is the run report stored in each reports directory.
const ReportFileName = "report.yaml"

// ShardDirPrefix prefixes the per-shard report directories.
const ShardDirPrefix = "shard_"

// ErrNoReport is returned when a reports directory holds no run report.
var ErrNoReport = errors.New("no run report found")

// ReportStore persists run reports.
type ReportStore interface {
	// SaveReport writes report into dir, creating dir when needed.
	SaveReport(dir m.Path, report m.RunReport) error
	// LoadReport reads the report kept in dir.
	LoadReport(dir m.Path) (m.RunReport, error)
	// ShardDirs lists the shard_* directories below dir in lexical order.
	ShardDirs(dir m.Path) ([]m.Path, error)
}

// YAMLReportStore stores reports as YAML documents.
type YAMLReportStore struct{}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report.yaml below dir.
func (s *YAMLReportStore) SaveReport(dir m.Path, report m.RunReport) error {
	if err := os.MkdirAll(string(dir), 0o755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(string(dir), ReportFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// LoadReport reads report.yaml from dir.
func (s *YAMLReportStore) LoadReport(dir m.Path) (m.RunReport, error) {
	path := filepath.Join(string(dir), ReportFileName)

	// #nosec G304 - reports directory is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m.RunReport{}, fmt.Errorf("%w in %s", ErrNoReport, dir)
		}

		return m.RunReport{}, fmt.Errorf("read report %s: %w", path, err)
	}

	var report m.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.RunReport{}, fmt.Errorf("decode report %s: %w", path, err)
	}

	return report, nil
}

// ShardDirs returns the shard report directories under dir.
func (s *YAMLReportStore) ShardDirs(dir m.Path) ([]m.Path, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	var dirs []m.Path

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ShardDirPrefix) {
			dirs = append(dirs, m.Path(filepath.Join(string(dir), entry.Name())))
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	return dirs, nil
}

// ShardDir returns the reports directory of one shard.
func ShardDir(dir m.Path, index int) m.Path {
	return m.Path(filepath.Join(string(dir), fmt.Sprintf("%s%d", ShardDirPrefix, index)))
}
