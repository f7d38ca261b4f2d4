package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Zerolog adapts a zerolog.Logger to the Logger facade.
type Zerolog struct {
	logger zerolog.Logger
}

// NewZerolog creates a console logger writing to stderr.
func NewZerolog() *Zerolog {
	return NewZerologWriter(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// NewZerologWriter creates a logger writing to the given writer.
func NewZerologWriter(w io.Writer) *Zerolog {
	return &Zerolog{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(logger zerolog.Logger) *Zerolog {
	return &Zerolog{logger: logger}
}

// Debug logs at debug level.
func (z *Zerolog) Debug(msg string, fields ...Field) {
	z.emit(z.logger.Debug(), msg, fields)
}

// Info logs at info level.
func (z *Zerolog) Info(msg string, fields ...Field) {
	z.emit(z.logger.Info(), msg, fields)
}

// Warn logs at warn level.
func (z *Zerolog) Warn(msg string, fields ...Field) {
	z.emit(z.logger.Warn(), msg, fields)
}

// Error logs at error level.
func (z *Zerolog) Error(msg string, fields ...Field) {
	z.emit(z.logger.Error(), msg, fields)
}

func (z *Zerolog) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case time.Time:
			event = event.Time(f.Key, v)
		case time.Duration:
			event = event.Dur(f.Key, v)
		case error:
			event = event.AnErr(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	event.Msg(msg)
}
