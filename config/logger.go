package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Logger logger config struct
type Logger struct {
	Level      string
	Format     string
	Output     string
	OutputFile string
}

func setLoggerDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.output_file", "")
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:      v.GetString("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}

// NewLogger builds a logrus logger. The returned cleanup closes a log file, if one was opened.
func (l *Logger) NewLogger() (*logrus.Logger, func(), error) {
	logger := logrus.New()
	cleanup := func() {}

	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, cleanup, fmt.Errorf("logger.level: %w", err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(l.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	switch strings.ToLower(l.Output) {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "discard", "none":
		logger.SetOutput(io.Discard)
	case "file":
		if l.OutputFile == "" {
			return nil, cleanup, fmt.Errorf("logger.output_file is required when logger.output is file")
		}
		f, err := os.OpenFile(l.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		cleanup = func() { _ = f.Close() }
	default:
		logger.SetOutput(os.Stderr)
	}

	return logger, cleanup, nil
}
