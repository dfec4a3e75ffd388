package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "ngraph"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	fileFlagName          = "file"
	dirFlagName           = "dir"
	warningFlagName       = "warning"
	quietFlagName         = "quiet"
	verboseFlagName       = "verbose"
	logFileFlagName       = "log-file"
	outputFlagName        = "output"
	checkParallelFlagName = "parallel"

	manifestFileKey   = "manifest.file"
	dupbuildKey       = "warnings.dupbuild"
	phonycycleKey     = "warnings.phonycycle"
	quietKey          = "warnings.quiet"
	checkParallelKey  = "check.parallel"
	defaultManifest   = "build.ninja"
	defaultDupbuild   = warnValue
	defaultPhonycycle = warnValue
	defaultQuiet      = false

	warnValue = "warn"
	errValue  = "err"

	envPrefix = "NGRAPH"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".ngraph.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var defaultCheckParallel = runtime.NumCPU()

var globalLogger = slog.Default()

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(manifestFileKey, defaultManifest)
	viper.SetDefault(dupbuildKey, defaultDupbuild)
	viper.SetDefault(phonycycleKey, defaultPhonycycle)
	viper.SetDefault(quietKey, defaultQuiet)
	viper.SetDefault(checkParallelKey, defaultCheckParallel)

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

		return
	}
}

// parseDupbuild maps a dupbuild warning value to the parser policy.
func parseDupbuild(value string) (m.DupeEdgeAction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case warnValue, "":
		return m.DupeEdgeActionWarn, nil
	case errValue:
		return m.DupeEdgeActionError, nil
	}

	return m.DupeEdgeActionWarn, fmt.Errorf("invalid dupbuild value '%s'; use err or warn", value)
}

// parsePhonycycle maps a phonycycle warning value to the parser policy.
// "err" keeps the self-loop in the graph so the scheduler reports the cycle.
func parsePhonycycle(value string) (m.PhonyCycleAction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case warnValue, "":
		return m.PhonyCycleActionWarn, nil
	case errValue:
		return m.PhonyCycleActionAllow, nil
	}

	return m.PhonyCycleActionWarn, fmt.Errorf("invalid phonycycle value '%s'; use err or warn", value)
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

	// Numeric slog levels work too, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the global slog logger at a rotating log file.
// It logs at the configured level, or Debug when verbose is set.
func configureLogger(logPath string, verbose bool) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
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
