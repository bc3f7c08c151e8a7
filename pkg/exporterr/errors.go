// Package exporterr defines the error taxonomy shared by the export engine.
//
// Every failure that leaves the engine is an *Error carrying one of the kind
// sentinels below, so callers can branch with errors.Is:
//
//	artifact, err := exporter.Export(ctx, req)
//	if errors.Is(err, exporterr.ErrUnsupportedNodeType) {
//	    // the document uses a node the target format cannot represent
//	}
package exporterr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedTree means the input violates a document tree invariant.
	ErrMalformedTree = errors.New("malformed document tree")

	// ErrUnsupportedNodeType means a node or mark type has no handler for the
	// requested format.
	ErrUnsupportedNodeType = errors.New("unsupported node type")

	// ErrResourceFetch means an external resource could not be resolved.
	// It is absorbed by the engine and never fails an export on its own.
	ErrResourceFetch = errors.New("resource fetch failed")

	// ErrPackageWriteFailure means the package writer rejected the
	// constructed package.
	ErrPackageWriteFailure = errors.New("package write failed")

	// ErrUnsupportedFormat means the requested export format is unknown.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrInvalidRequest means the export request itself is incomplete.
	ErrInvalidRequest = errors.New("invalid export request")

	// ErrCanceled means the caller canceled the export before it completed.
	ErrCanceled = errors.New("export canceled")
)

// Error is an export engine error.
type Error struct {
	// Op is the operation that failed (e.g. "Export", "Serialize").
	Op string

	// Kind is one of the sentinel errors declared in this package.
	Kind error

	// Msg is an optional human readable detail.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// Error renders "Op: Msg: kind: cause", omitting empty parts. The kind is
// left out when the cause already matches it.
func (e *Error) Error() string {
	parts := []string{e.Op}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if e.Kind != nil && (e.Err == nil || !errors.Is(e.Err, e.Kind)) {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New creates an Error of the given kind.
func New(op string, kind error, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Wrap creates an Error of the given kind around err. If err already carries
// the same kind it is returned unchanged so the kind is not reported twice.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && errors.Is(existing.Kind, kind) {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrMalformedTree,
		ErrUnsupportedNodeType,
		ErrResourceFetch,
		ErrPackageWriteFailure,
		ErrUnsupportedFormat,
		ErrInvalidRequest,
		ErrCanceled,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// UnsupportedTypeError identifies a node or mark type that has no handler
// registered for a format.
type UnsupportedTypeError struct {
	Format string
	Type   string
	Mark   bool
}

func (e *UnsupportedTypeError) Error() string {
	what := "node"
	if e.Mark {
		what = "mark"
	}
	return fmt.Sprintf("no %s handler for %q in format %q", what, e.Type, e.Format)
}

// Is reports whether target is ErrUnsupportedNodeType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedNodeType
}

// UnsupportedNode returns the error raised when a node type is not registered
// for format.
func UnsupportedNode(op, format, nodeType string) error {
	return &Error{
		Op:   op,
		Kind: ErrUnsupportedNodeType,
		Err:  &UnsupportedTypeError{Format: format, Type: nodeType},
	}
}

// UnsupportedMark returns the error raised when a mark type is not registered
// for format.
func UnsupportedMark(op, format, markType string) error {
	return &Error{
		Op:   op,
		Kind: ErrUnsupportedNodeType,
		Err:  &UnsupportedTypeError{Format: format, Type: markType, Mark: true},
	}
}
