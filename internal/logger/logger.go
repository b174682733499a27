package logger

import (
	"os"
	"strings"

	"flatmate/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds a logger from the logging configuration. Unknown levels fall back to info.
func New(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// Setup configures the package-level logrus logger and returns a matching instance
func Setup(cfg config.LoggingConfig) *logrus.Logger {
	log := New(cfg)
	logrus.SetOutput(log.Out)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)
	return log
}
