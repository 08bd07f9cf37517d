// Package logger adapts zerolog to the Logger interface the commands use.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog writes JSON lines at or above level to writer.
func NewZerolog(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = false

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// NewConsoleLogger writes human-readable lines to stderr.
func NewConsoleLogger(level zerolog.Level) *ZerologAdapter {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	return NewZerolog(consoleWriter, level)
}

// Nop returns a logger that discards everything.
func Nop() *ZerologAdapter {
	return &ZerologAdapter{logger: zerolog.Nop()}
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]any) {
	z.emit(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]any) {
	z.emit(z.logger.Error(), component, fields).Err(err).Msg("operation failed")
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]any) {
	z.emit(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]any) {
	z.emit(z.logger.Debug(), component, fields).Msg(message)
}

// emit tags event with component and fields. Disabled events are nil and
// every method on them is a no-op.
func (z *ZerologAdapter) emit(event *zerolog.Event, component string, fields map[string]any) *zerolog.Event {
	if !event.Enabled() {
		return event
	}
	event = event.Str("component", component)
	for k, v := range fields {
		switch v := v.(type) {
		case time.Duration:
			event = event.Dur(k, v)
		case error:
			event = event.AnErr(k, v)
		default:
			event = event.Interface(k, v)
		}
	}
	return event
}
