package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/powerplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	mu     sync.RWMutex
	format = FormatJSON
)

// Setup sets the global level and output format of loggers created
// afterwards. An empty level keeps info.
func Setup(level, outputFormat string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}
	switch outputFormat {
	case "", FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", outputFormat)
	}
	zerolog.SetGlobalLevel(lvl)
	mu.Lock()
	if outputFormat != "" {
		format = outputFormat
	}
	mu.Unlock()
	return nil
}

func currentFormat() string {
	mu.RLock()
	defer mu.RUnlock()
	return format
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
