package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CalcLogger adapts zerolog to the economics calculator's printf-style
// Logger. The zero value writes to the global logger.
type CalcLogger struct {
	Logger *zerolog.Logger
}

func (c CalcLogger) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// Debugf implements economics.Logger
func (c CalcLogger) Debugf(format string, args ...any) { c.logger().Debug().Msgf(format, args...) }

// Infof implements economics.Logger
func (c CalcLogger) Infof(format string, args ...any) { c.logger().Info().Msgf(format, args...) }

// Warnf implements economics.Logger
func (c CalcLogger) Warnf(format string, args ...any) { c.logger().Warn().Msgf(format, args...) }

// Errorf implements economics.Logger
func (c CalcLogger) Errorf(format string, args ...any) { c.logger().Error().Msgf(format, args...) }
