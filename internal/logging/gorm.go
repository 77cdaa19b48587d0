package logging

import (
	"github.com/rs/zerolog"
	glog "gorm.io/gorm/logger"
)

// GormWriter adapts a zerolog logger to gorm's logger.Writer.
type GormWriter struct {
	logger zerolog.Logger
}

// NewGormWriter wraps logger for use with glog.New.
func NewGormWriter(logger zerolog.Logger) *GormWriter {
	return &GormWriter{logger: logger}
}

// Printf implements glog.Writer.
func (w *GormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info().Msgf(format, args...)
}

// GormLevel converts a config string to a gorm log level. Unknown values map to Warn.
func GormLevel(level string) glog.LogLevel {
	switch level {
	case "silent":
		return glog.Silent
	case "error":
		return glog.Error
	case "info":
		return glog.Info
	default:
		return glog.Warn
	}
}
