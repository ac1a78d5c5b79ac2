// Package errors defines the error kinds surfaced by a taprelease run.
//
// Every fatal failure is wrapped in an *Error carrying a Kind so callers can
// branch on the category (configuration, network, file IO, release data,
// formatting) without parsing message text. The CLI maps KindConfig to exit
// code 2 and everything else to 1.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorises a failure.
type Kind string

const (
	KindUnknown Kind = "unknown"
	// KindConfig is a missing or invalid input detected before any network call.
	KindConfig Kind = "config"
	// KindNetwork is a failed, timed out or non-2xx HTTP exchange.
	KindNetwork Kind = "network"
	// KindIO is a local file or subprocess failure.
	KindIO Kind = "io"
	// KindData is release metadata that cannot be turned into a formula.
	KindData Kind = "data"
	// KindFormat is rendered output that fails a formatting constraint.
	KindFormat Kind = "format"
)

var (
	// ErrMissingInput indicates that one or more required inputs were not provided.
	ErrMissingInput = errors.New("missing required input")

	// ErrEmptyVersion indicates that the release has no tag to build URLs from.
	ErrEmptyVersion = errors.New("release has no version tag")

	// ErrNoFormulaFiles indicates that the tap formula folder holds no Ruby files.
	ErrNoFormulaFiles = errors.New("no Ruby files found in the formula folder")

	// ErrSignatureMissing indicates that a required artifact signature is not in the release.
	ErrSignatureMissing = errors.New("artifact signature not found")

	// ErrUnexpectedStatus indicates a non-2xx HTTP response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Config(op string, err error) error  { return New(KindConfig, op, err) }
func Network(op string, err error) error { return New(KindNetwork, op, err) }
func IO(op string, err error) error      { return New(KindIO, op, err) }
func Data(op string, err error) error    { return New(KindData, op, err) }
func Format(op string, err error) error  { return New(KindFormat, op, err) }

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
