package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process logger, set once by Init at startup
var Logger = zerolog.Nop()

// Level is a zerolog level name; unknown names fall back to info
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// New builds a logger from cfg without touching the process logger
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var l zerolog.Logger
	if cfg.JSONOutput {
		l = zerolog.New(output)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	}
	return l.Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Init initializes the process logger. Call it once from main.
func Init(cfg Config) {
	Logger = New(cfg)
}

func parseLevel(level Level) zerolog.Level {
	l, err := zerolog.ParseLevel(string(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithExecution creates a child logger tagged with an execution
func WithExecution(l zerolog.Logger, emulation string, ipFirstOctet int) zerolog.Logger {
	return l.With().Str("emulation", emulation).Int("execution_id", ipFirstOctet).Logger()
}

// WithNode creates a child logger with node_ip field
func WithNode(l zerolog.Logger, ip string) zerolog.Logger {
	return l.With().Str("node_ip", ip).Logger()
}
