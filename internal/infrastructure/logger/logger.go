package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger tags every line with the upper-cased environment label, both as a
// "[LABEL]" message prefix and as an "env" field.
type Logger struct {
	sugar *zap.SugaredLogger
	tag   string
}

func New(logLevel, logFile, environment string) (*Logger, error) {
	if logFile != "" {
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)

	consoleWriter := zapcore.AddSync(os.Stdout)

	var core zapcore.Core
	if logFile != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
		core = zapcore.NewTee(
			zapcore.NewCore(consoleEncoder, consoleWriter, level),
			zapcore.NewCore(fileEncoder, fileWriter, level),
		)
	} else {
		core = zapcore.NewCore(consoleEncoder, consoleWriter, level)
	}

	return FromZap(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), environment), nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger, environment string) *Logger {
	label := Label(environment)
	z = z.WithOptions(zap.AddCallerSkip(1)).With(zap.String("env", label))
	return &Logger{sugar: z.Sugar(), tag: "[" + label + "] "}
}

// Label normalizes an environment name into the tag used on every log line
// and notification.
func Label(environment string) string {
	label := strings.ToUpper(strings.TrimSpace(environment))
	if label == "" {
		return "UNKNOWN"
	}
	return label
}

func (l *Logger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(l.tag+template, args...)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(l.tag+template, args...)
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(l.tag+template, args...)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(l.tag+template, args...)
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) Close() {
	_ = l.Sync()
}
