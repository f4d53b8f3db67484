package plugin

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a plugin error
type ErrorType int

const (
	// ErrTypeConfig indicates an invalid plugin or predicate configuration
	ErrTypeConfig ErrorType = iota
	// ErrTypeRegistration indicates the feed rejected a register or deregister call
	ErrTypeRegistration
	// ErrTypeLookup indicates the vendor configuration could not be resolved
	ErrTypeLookup
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConfig:
		return "Configuration Error"
	case ErrTypeRegistration:
		return "Registration Error"
	case ErrTypeLookup:
		return "Lookup Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

var (
	// ErrAlreadyStarted is returned by Start on a running plugin
	ErrAlreadyStarted = errors.New("plugin already started")

	// ErrNotStarted is returned by Stop on a plugin that is not running
	ErrNotStarted = errors.New("plugin not started")
)

// Error is returned by plugin construction and lifecycle operations
type Error struct {
	Type   ErrorType // Category of error
	Plugin string    // Plugin name, may be empty during construction
	Op     string    // Operation that failed ("new", "start", "stop")
	Err    error     // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Type, e.Plugin, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a category, plugin name and operation
func NewError(errType ErrorType, plugin, op string, err error) *Error {
	return &Error{Type: errType, Plugin: plugin, Op: op, Err: err}
}

// IsConfigError reports whether err is a configuration error
func IsConfigError(err error) bool {
	return isType(err, ErrTypeConfig)
}

// IsRegistrationError reports whether err is a registration error
func IsRegistrationError(err error) bool {
	return isType(err, ErrTypeRegistration)
}

// IsLookupError reports whether err is a lookup error
func IsLookupError(err error) bool {
	return isType(err, ErrTypeLookup)
}

func isType(err error, t ErrorType) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}
