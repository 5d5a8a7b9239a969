package csvstream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a Reader or Writer is constructed with a nil stream or an
	// invalid Config.
	ErrInvalidArgument = errors.New("csvstream: invalid argument")
	// ErrNotFound is returned by OpenReader when the source path does not exist.
	ErrNotFound = errors.New("csvstream: file not found")
	// ErrResourceExhausted is returned when a safety limit is exceeded. The stream is closed.
	ErrResourceExhausted = errors.New("csvstream: resource exhausted")
	// ErrIO wraps failures of the underlying source or sink. The stream is closed.
	ErrIO = errors.New("csvstream: i/o failure")
	// ErrClosed is returned by any operation attempted after Close or after a terminal error.
	ErrClosed = errors.New("csvstream: already closed")
	// ErrUnsupported is returned by operations that are intentionally not implemented.
	ErrUnsupported = fmt.Errorf("csvstream: %w", errors.ErrUnsupported)
)

// Limit identifies which safety limit a LimitError refers to.
type Limit int

const (
	// LimitFieldLength bounds the number of bytes accumulated for a single field.
	LimitFieldLength Limit = iota
	// LimitFieldCount bounds the number of fields in a single record.
	LimitFieldCount
)

// String returns the human-readable name of the limit.
func (l Limit) String() string {
	switch l {
	case LimitFieldLength:
		return "field length"
	case LimitFieldCount:
		return "field count"
	default:
		return fmt.Sprintf("Limit(%d)", int(l))
	}
}

// LimitError reports a safety-limit breach with the position at which it happened.
type LimitError struct {
	Limit Limit
	// Record is the zero-based index of the data record being read.
	Record int64
	// Field is the zero-based index of the field being accumulated.
	Field int
	// Max is the configured limit.
	Max int
}

// Error formats the limit, the position, and a hint for disabling the safety switch.
func (e *LimitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvstream: maximum %s of %d exceeded in field %d of record %d; disable SafetySwitch to read larger input",
		e.Limit, e.Max, e.Field, e.Record)
}

// Unwrap returns ErrResourceExhausted so LimitError participates in errors.Is.
func (e *LimitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return ErrResourceExhausted
}

// OptionsError names a single invalid Config field.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csvstream: invalid " + e.Field + ": " + e.Message
}

// Unwrap returns ErrInvalidArgument.
func (e *OptionsError) Unwrap() error {
	return ErrInvalidArgument
}

func ioError(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}
