package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger instance.
	Logger  *zap.Logger
	LogMode string

	levelColors = map[zapcore.Level]string{
		zapcore.DebugLevel: "\033[36m", // cyan
		zapcore.InfoLevel:  "\033[32m", // green
		zapcore.WarnLevel:  "\033[33m", // yellow
		zapcore.ErrorLevel: "\033[31m", // red
		zapcore.FatalLevel: "\033[35m", // magenta
	}
	resetColor = "\033[0m"
)

func getEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   nil,
	}
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

func customLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := levelColors[l]
	level := l.String()
	switch l {
	case zapcore.DebugLevel:
		level = "DBG"
	case zapcore.InfoLevel:
		level = "INF"
	case zapcore.WarnLevel:
		level = "WRN"
	case zapcore.ErrorLevel:
		level = "ERR"
	case zapcore.FatalLevel:
		level = "FAT"
	}
	enc.AppendString(color + level + resetColor)
}

// InitLogger sets up the global logger with a JSON file core and a colored
// console core. Must run after the .env file is loaded so LOG_MODE is visible.
func InitLogger(logLevel string) error {
	var level zapcore.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	case "fatal":
		level = zapcore.FatalLevel
	default:
		level = zapcore.InfoLevel
	}

	LogMode = os.Getenv("LOG_MODE")

	if err := os.MkdirAll("logs", 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	fileWriter := zapcore.AddSync(logFile)
	consoleWriter := zapcore.AddSync(os.Stdout)

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(getEncoderConfig()),
		fileWriter,
		level,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(getEncoderConfig()),
		consoleWriter,
		level,
	)

	core := zapcore.NewTee(fileCore, consoleCore)

	Logger = zap.New(core,
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "mealplan-generator"),
		),
	)

	zap.ReplaceGlobals(Logger)

	return nil
}

// filterFields drops fields that carry whole prompts or raw model output,
// which are too large for the request log stream.
func filterFields(fields []zap.Field) []zap.Field {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if field.Key == "prompt" || strings.Contains(field.Key, "raw_response") {
			continue
		}
		filtered = append(filtered, field)
	}
	return filtered
}

// LogInfo logs at info level. In concise mode only the request-completed line
// and server lifecycle messages get through.
func LogInfo(msg string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	if LogMode == "concise" {
		if msg != "request completed" && msg != "starting server" && msg != "Server exited" && msg != "Shutting down server..." {
			return
		}
	}
	Logger.Info(msg, filterFields(fields)...)
}

// LogError logs at error level.
func LogError(msg string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Error(msg, filterFields(fields)...)
}

// LogWarn logs at warn level.
func LogWarn(msg string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Warn(msg, filterFields(fields)...)
}

// LogDebug logs at debug level.
func LogDebug(msg string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Debug(msg, filterFields(fields)...)
}

// LogFatal logs at fatal level and exits.
func LogFatal(msg string, fields ...zap.Field) {
	if Logger == nil {
		panic(msg)
	}
	Logger.Fatal(msg, fields...)
}

// Sync flushes buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogGeneratorCall records one round trip to the external generator.
func LogGeneratorCall(duration time.Duration, err error, requestID string) {
	if err != nil {
		LogError("generator request failed",
			zap.Error(err),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
		)
		return
	}
	LogInfo("generator request succeeded",
		zap.Duration("duration", duration),
		zap.String("request_id", requestID),
	)
}
