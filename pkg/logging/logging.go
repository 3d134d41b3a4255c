// pkg/logging/logging.go
package logging

import (
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log output formats accepted by Configure.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Rotation policy for the file sink.
const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
)

var (
	// logOutput is the destination for console log output.
	logOutput io.Writer = os.Stdout
)

// Options controls the global logger built by Configure.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty defaults to error.
	Level string
	// Format selects console rendering: FormatText or FormatJSON.
	Format string
	// File, when non-empty, adds a rotating JSON file sink at that path.
	File string
}

// stdLogWriter reformats standard library log output to match zerolog's format.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")

	// Parse the stdlog format (this is a simplified parser)
	// Example stdlog output: "2025/05/23 14:40:15 client.go:35: connection reset"
	parts := strings.SplitN(message, " ", 4)
	if len(parts) >= 4 {
		stdTime, err := time.Parse("2006/01/02 15:04:05", parts[0]+" "+parts[1])
		if err == nil {
			fileLine := strings.TrimSuffix(parts[2], ":")

			w.logger.Debug().
				Str("file", fileLine).
				Time("time", stdTime).
				Msg(parts[3])
			return len(p), nil
		}
	}

	// Fallback if parsing fails
	w.logger.Debug().Msg(message)
	return len(p), nil
}

// init sets the global logging level for zerolog to ErrorLevel so that logs
// emitted before Configure runs are suppressed.
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        logOutput,
		TimeFormat: time.RFC3339,
	})
}

// Configure rebuilds the global logger from opts. The console writer renders
// text or raw JSON depending on opts.Format; when opts.File is set, the same
// events are duplicated as JSON into a rotating file.
func Configure(opts Options) error {
	level := parseLogLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	console := logOutput
	if !strings.EqualFold(opts.Format, FormatJSON) {
		console = zerolog.ConsoleWriter{
			Out:        logOutput,
			TimeFormat: time.RFC3339,
		}
	}

	w := console
	if opts.File != "" {
		w = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
		})
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Route standard library log output through zerolog at debug level.
	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger})

	return nil
}

// NewLogger returns a child of the global logger tagged with a component
// field. The level caps verbosity for that component only.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return log.With().Str("component", component).Logger().Level(level)
}

// NewLoggerWithWriter builds a standalone JSON logger writing to w. Tests use
// it to capture output without touching global state.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// SetLogWriter redirects console output. Tests use it to capture logs.
func SetLogWriter(w io.Writer) {
	logOutput = w
}
