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

	"gooze.dev/pkg/crucible/internal/adapter"
	"gooze.dev/pkg/crucible/internal/domain"
	m "gooze.dev/pkg/crucible/internal/model"
)

// LevelTrace is below debug; it enables raw worker output in the log.
const LevelTrace = slog.Level(-8)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "crucible"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName             = "output"
	mutantsFlagName            = "mutants"
	concurrencyFlagName        = "concurrency"
	maxTestRunnerReuseFlagName = "max-test-runner-reuse"
	timeoutMSFlagName          = "timeout-ms"
	timeoutFactorFlagName      = "timeout-factor"
	dryRunTimeoutFlagName      = "dry-run-timeout"
	coverageFlagName           = "coverage-analysis"
	disableBailFlagName        = "disable-bail"
	checkersFlagName           = "checkers"
	testRunnerFlagName         = "test-runner"
	ignoreMutatorsFlagName     = "ignore-mutators"
	packagesFlagName           = "packages"
	tagsFlagName               = "tags"
	metricsAddrFlagName        = "metrics-addr"
	verboseFlagName            = "verbose"
	logFileFlagName            = "log-file"

	mutantsFileKey        = "mutants.file"
	concurrencyKey        = "run.concurrency"
	maxTestRunnerReuseKey = "run.max_test_runner_reuse"
	timeoutMSKey          = "run.timeout_ms"
	timeoutFactorKey      = "run.timeout_factor"
	dryRunTimeoutKey      = "run.dry_run_timeout"
	coverageKey           = "run.coverage_analysis"
	disableBailKey        = "run.disable_bail"
	checkersKey           = "run.checkers"
	testRunnerKey         = "run.test_runner"
	ignoreMutatorsKey     = "run.ignore_mutators"
	packagesKey           = "gotest.packages"
	tagsKey               = "gotest.tags"
	metricsAddrKey        = "metrics.addr"

	defaultReportPath         = "crucible-report.yaml"
	defaultMutantsFile        = "mutants.yaml"
	defaultConcurrency        = 2
	defaultMaxTestRunnerReuse = 0
	defaultDryRunTimeout      = domain.DefaultDryRunTimeout
	defaultCoverage           = string(m.CoverageOff)
	defaultDisableBail        = false
	defaultTestRunner         = adapter.GoTestRunnerName
	defaultPackages           = "./..."

	envPrefix = "CRUCIBLE"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".crucible.log"
	defaultLogLevel      = "info"
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

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportPath)
	viper.SetDefault(mutantsFileKey, defaultMutantsFile)
	viper.SetDefault(concurrencyKey, defaultConcurrency)
	viper.SetDefault(maxTestRunnerReuseKey, defaultMaxTestRunnerReuse)
	viper.SetDefault(timeoutMSKey, domain.DefaultTimeoutMS)
	viper.SetDefault(timeoutFactorKey, domain.DefaultTimeoutFactor)
	viper.SetDefault(dryRunTimeoutKey, defaultDryRunTimeout)
	viper.SetDefault(coverageKey, defaultCoverage)
	viper.SetDefault(disableBailKey, defaultDisableBail)
	viper.SetDefault(checkersKey, []string{adapter.GoBuildCheckerName})
	viper.SetDefault(testRunnerKey, defaultTestRunner)
	viper.SetDefault(ignoreMutatorsKey, []string{})
	viper.SetDefault(packagesKey, []string{defaultPackages})
	viper.SetDefault(tagsKey, "")
	viper.SetDefault(metricsAddrKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// logLevel is the configured level. Verbose forces debug unless the
// configured level is already lower.
func logLevel() slog.Level {
	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if viper.GetBool(logVerboseKey) && level > slog.LevelDebug {
		return slog.LevelDebug
	}

	return level
}

// configureLogger configures the global slog logger to write to a rotated file.
func configureLogger(logPath string) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
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
		Level:     logLevel(),
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// durationValue reads key as a duration. Plain numbers are seconds.
func durationValue(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return fallback
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration in configuration", "key", key, "value", raw, "error", err)
		return fallback
	}

	return d
}
