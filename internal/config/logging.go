package config

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds a configured logrus logger from the logging settings.
func NewLogger(cfg LoggingConfig) *log.Logger {
	logger := log.New()
	logger.SetLevel(parseLevel(cfg.Level))

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "off", "none":
		return log.PanicLevel
	default:
		return log.InfoLevel
	}
}
