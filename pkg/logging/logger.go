// Package logging configures zerolog for the explorer client, its walks and
// the proxy, and names the fields their log events share.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldEndpoint   = "endpoint"
	FieldResource   = "resource"
	FieldParent     = "parent"
	FieldCursor     = "cursor"
	FieldCheckpoint = "checkpoint"
	FieldErrorClass = "error_class"
	FieldStatusCode = "status_code"
)

// ErrUnknownLevel is returned for a level name ParseLevel does not know.
var ErrUnknownLevel = errors.New("unknown log level")

// Config selects the global logger's level and format.
type Config struct {
	// Level is one of debug, info, warn (or warning) and error. Empty means info.
	Level string

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// Setup installs the global logger. An unknown level leaves the current
// logger in place.
func Setup(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return log.Logger, err
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger, nil
}

// NewLogger derives a component logger from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// ForEndpoint derives a component logger tagged with the explorer endpoint
// its queries go to.
func ForEndpoint(component, endpoint string) zerolog.Logger {
	return log.With().
		Str(FieldComponent, component).
		Str(FieldEndpoint, endpoint).
		Logger()
}

// ForWalk tags logger with the paginated resource and the hash of the
// entity it hangs off (transaction, address or token contract).
func ForWalk(logger zerolog.Logger, resource, parent string) zerolog.Logger {
	return logger.With().
		Str(FieldResource, resource).
		Str(FieldParent, parent).
		Logger()
}

// Levels:
//
//	debug  queries sent, pages fetched, checkpoints loaded or saved
//	info   walk progress, page limits reached, proxy start and stop
//	warn   transport retries, rate-limit throttling, partial walk results
//	error  exhausted retries, blocked requests, failed proxy requests
