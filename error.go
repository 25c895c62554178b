package wireup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind is returned when block kind is not registered.
	ErrUnknownKind = errors.New("unknown block kind")
	// ErrInvalidKind is returned when kind declaration is incomplete.
	ErrInvalidKind = errors.New("invalid block kind")
	// ErrMalformedPin is returned when port or memory name is not a valid
	// identifier.
	ErrMalformedPin = errors.New("malformed pin name")
	// ErrInvalidName is returned when block name cannot be addressed.
	ErrInvalidName = errors.New("invalid block name")
	// ErrInvalidEndpoint is returned when wire endpoint cannot be resolved.
	ErrInvalidEndpoint = errors.New("invalid wire endpoint")
	// ErrInvalidSignal is returned when signal definition is malformed.
	ErrInvalidSignal = errors.New("invalid signal")
	// ErrUnknownSlot is returned when processor has no slot with such name.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrUnknownMethod is returned when block kind has no such method.
	ErrUnknownMethod = errors.New("unknown block method")
	// ErrNoProcessor is returned when engine has nothing to run.
	ErrNoProcessor = errors.New("no processor")
)

// InitError is returned when block init hook fails and compilation is
// aborted.
type InitError struct {
	Block string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Block, e.Err)
}

// Unwrap returns the hook error.
func (e *InitError) Unwrap() error {
	return e.Err
}

// warnings collects non-fatal compile findings.
type warnings []string

func (w warnings) String() string {
	return strings.Join(w, "; ")
}
