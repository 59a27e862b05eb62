package cmd

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/mutaug/internal/adapter"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "mutaug", configBaseName)
	assert.Equal(t, "mutaug.yaml", configFileName)
	assert.Equal(t, "MUTAUG", envPrefix)
	assert.Equal(t, ".mutaug-reports", defaultReportsDir)
	assert.Equal(t, "run.fail_on_unverified", failOnUnverifiedConfigKey)
	assert.Equal(t, 1, defaultRunParallel)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, "mutmut", viper.GetString(engineCommandKey))
	assert.Equal(t, "python3", viper.GetString(verifyPythonKey))
	assert.Equal(t, 10*time.Minute, configSeconds(engineTimeoutKey))
	assert.Equal(t, 5*time.Minute, configSeconds(verifyTimeoutKey))
}

func TestBackendConfigFromViper(t *testing.T) {
	t.Setenv("MUTAUG_BACKEND_API_KEY", "secret")
	t.Setenv("MUTAUG_BACKEND_PROVIDER", "gemini")

	cfg := backendConfigFromViper()

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, adapter.ProviderGemini, cfg.Provider)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.InDelta(t, 1.0, cfg.RPS, 1e-9)
}

func TestRunPipelineOptions_EditorIsSequential(t *testing.T) {
	t.Setenv("MUTAUG_BACKEND_KIND", "editor")
	t.Setenv("MUTAUG_RUN_GENERATE_PARALLEL", "4")

	options := runPipelineOptions()

	assert.Equal(t, adapter.BackendEditor, options.backend.Kind)
	assert.Equal(t, 1, options.generateParallel)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" WARNING ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logger := configureLogger(filepath.Join(t.TempDir(), "mutaug.log"), true)

	require.NotNil(t, logger)
	assert.Same(t, logger, globalLogger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
