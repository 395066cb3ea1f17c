// internal/logger/logger.go
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/javajoker/storefront-backend/internal/config"
)

// Setup configures the standard logrus logger. The returned closer flushes the
// rotating file, if one was configured.
func Setup(environment string, cfg config.LogConfig) io.Closer {
	if environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, rotating))
	return rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
