package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/mutaug/internal/adapter"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mutaug"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName           = "output"
	excludeFlagName          = "exclude"
	verboseFlagName          = "verbose"
	sourceFlagName           = "source"
	testsFlagName            = "tests"
	runParallelFlagName      = "parallel"
	generateParallelFlagName = "generate-parallel"
	shardFlagName            = "shard"
	dryRunFlagName           = "dry-run"
	failOnUnverifiedFlagName = "fail-on-unverified"
	backendFlagName          = "backend"
	providerFlagName         = "provider"
	modelFlagName            = "model"

	sourceConfigKey           = "paths.source"
	testsConfigKey            = "paths.tests"
	excludeConfigKey          = "paths.exclude"
	runParallelConfigKey      = "run.parallel"
	generateParallelConfigKey = "run.generate_parallel"
	dryRunConfigKey           = "run.dry_run"
	failOnUnverifiedConfigKey = "run.fail_on_unverified"

	engineCommandKey = "engine.command"
	engineWorkDirKey = "engine.workdir"
	engineTimeoutKey = "engine.timeout"

	verifyPythonKey  = "verify.python"
	verifyTimeoutKey = "verify.timeout"

	backendKindKey       = "backend.kind"
	backendProviderKey   = "backend.provider"
	backendAPIKeyKey     = "backend.api_key"
	backendModelKey      = "backend.model"
	backendRPSKey        = "backend.rps"
	backendExecutableKey = "backend.executable"
	backendTimeoutKey    = "backend.timeout"

	defaultReportsDir       = ".mutaug-reports"
	defaultSourceDir        = "src"
	defaultTestsDir         = "tests"
	defaultRunParallel      = 1
	defaultGenerateParallel = 1
	defaultEngineTimeout    = 10 * time.Minute
	defaultVerifyTimeout    = 5 * time.Minute
	defaultBackendTimeout   = 10 * time.Minute
	defaultBackendRPS       = 1.0

	envPrefix = "MUTAUG"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mutaug.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(sourceConfigKey, defaultSourceDir)
	viper.SetDefault(testsConfigKey, defaultTestsDir)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(generateParallelConfigKey, defaultGenerateParallel)
	viper.SetDefault(dryRunConfigKey, false)
	viper.SetDefault(failOnUnverifiedConfigKey, false)

	viper.SetDefault(engineCommandKey, adapter.DefaultEngineCommand)
	viper.SetDefault(engineWorkDirKey, "")
	viper.SetDefault(engineTimeoutKey, int64(defaultEngineTimeout.Seconds()))

	viper.SetDefault(verifyPythonKey, adapter.DefaultPython)
	viper.SetDefault(verifyTimeoutKey, int64(defaultVerifyTimeout.Seconds()))

	viper.SetDefault(backendKindKey, string(adapter.BackendCompletion))
	viper.SetDefault(backendProviderKey, adapter.ProviderOpenAI)
	viper.SetDefault(backendAPIKeyKey, "")
	viper.SetDefault(backendModelKey, "")
	viper.SetDefault(backendRPSKey, defaultBackendRPS)
	viper.SetDefault(backendExecutableKey, "")
	viper.SetDefault(backendTimeoutKey, int64(defaultBackendTimeout.Seconds()))

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Warn("failed to read config file", "error", err)
	}
}

// configSeconds reads a duration stored in whole seconds.
func configSeconds(key string) time.Duration {
	return time.Duration(viper.GetInt64(key)) * time.Second
}

// backendConfigFromViper assembles the synthesis backend settings.
func backendConfigFromViper() adapter.BackendConfig {
	return adapter.BackendConfig{
		Kind:       adapter.BackendKind(viper.GetString(backendKindKey)),
		Provider:   viper.GetString(backendProviderKey),
		APIKey:     viper.GetString(backendAPIKeyKey),
		Model:      viper.GetString(backendModelKey),
		RPS:        viper.GetFloat64(backendRPSKey),
		Executable: viper.GetString(backendExecutableKey),
		Timeout:    configSeconds(backendTimeoutKey),
	}
}

func engineConfigFromViper() adapter.EngineConfig {
	return adapter.EngineConfig{
		Command: viper.GetString(engineCommandKey),
		WorkDir: viper.GetString(engineWorkDirKey),
		Timeout: configSeconds(engineTimeoutKey),
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs a rotating file logger as the slog default.
//
// It logs at the configured level, or at Debug when verbose is set.
func configureLogger(logPath string, verbose bool) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return globalLogger
}
