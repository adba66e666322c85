// Package log provides a package-level structured logger backed by zerolog.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	// logTestWriterName is a special output name that makes the logger write
	// into logTestWriter, for benchmarks and tests.
	logTestWriterName = "log_test_writer"
)

var (
	log      zerolog.Logger
	logLevel = LogLevelInfo

	logTestWriter io.Writer

	// panicOnInvalidChars makes the logger panic whenever a log line contains
	// invalid UTF-8, which usually means binary data was logged by mistake.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = LogLevelError
	}
	Init(level, "stderr", nil)
}

// invalidCharChecker panics when the encoded log line carries the unicode
// replacement character, which zerolog emits for invalid UTF-8 input.
type invalidCharChecker struct {
	out io.Writer
}

var replacementChars = [][]byte{[]byte(`\ufffd`), []byte("\ufffd")}

func (w *invalidCharChecker) Write(p []byte) (int, error) {
	for _, rc := range replacementChars {
		if bytes.Contains(p, rc) {
			panic(fmt.Sprintf("log line contains invalid characters: %q", p))
		}
	}
	return w.out.Write(p)
}

// errorLevelWriter duplicates warning and error lines into a second writer.
type errorLevelWriter struct {
	io.Writer
	errorOutput io.Writer
}

func (w *errorLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.WarnLevel {
		if _, err := w.errorOutput.Write(p); err != nil {
			return 0, err
		}
	}
	return w.Write(p)
}

// Init configures the logger with the given level and output. Output can be
// "stdout", "stderr" or a file path. If errorOutput is not nil, warnings and
// errors are also written there.
func Init(level, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}
	case "stderr":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(filepath.Clean(output), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		out = f
	}
	if panicOnInvalidChars {
		out = &invalidCharChecker{out: out}
	}
	if errorOutput != nil {
		out = &errorLevelWriter{Writer: out, errorOutput: errorOutput}
	}
	log = zerolog.New(out).With().Timestamp().Logger()
	setLevel(level)
	log.Debug().Str("level", level).Str("output", output).Msg("logger initialized")
}

func setLevel(level string) {
	switch level {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}
	logLevel = level
}

// Level returns the current log level.
func Level() string {
	return logLevel
}

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger {
	return &log
}

func Debug(args ...any) {
	log.Debug().Msg(fmt.Sprint(args...))
}

func Info(args ...any) {
	log.Info().Msg(fmt.Sprint(args...))
}

func Warn(args ...any) {
	log.Warn().Msg(fmt.Sprint(args...))
}

func Error(args ...any) {
	log.Error().Msg(fmt.Sprint(args...))
}

// Fatal logs and exits the program with status 1.
func Fatal(args ...any) {
	log.Fatal().Msg(fmt.Sprint(args...))
}

func Debugf(template string, args ...any) {
	log.Debug().Msgf(template, args...)
}

func Infof(template string, args ...any) {
	log.Info().Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	log.Warn().Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	log.Error().Msgf(template, args...)
}

func Fatalf(template string, args ...any) {
	log.Fatal().Msgf(template, args...)
}

// Debugw logs a message with key-value pairs.
func Debugw(msg string, keyvalues ...any) {
	log.Debug().Fields(keyvalues).Msg(msg)
}

// Infow logs a message with key-value pairs.
func Infow(msg string, keyvalues ...any) {
	log.Info().Fields(keyvalues).Msg(msg)
}

// Warnw logs a message with key-value pairs.
func Warnw(msg string, keyvalues ...any) {
	log.Warn().Fields(keyvalues).Msg(msg)
}

// Errorw logs an error with a message.
func Errorw(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}
