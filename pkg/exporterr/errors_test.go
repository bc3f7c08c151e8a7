package exporterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "kind with message",
			err: &Error{
				Op:   "Validate",
				Kind: ErrMalformedTree,
				Msg:  "root must be a doc node",
			},
			expected: "Validate: root must be a doc node: malformed document tree",
		},
		{
			name: "kind without message",
			err: &Error{
				Op:   "Export",
				Kind: ErrCanceled,
			},
			expected: "Export: export canceled",
		},
		{
			name: "kind and cause",
			err: &Error{
				Op:   "Write",
				Kind: ErrPackageWriteFailure,
				Err:  errors.New("disk full"),
			},
			expected: "Write: package write failed: disk full",
		},
		{
			name: "message and cause",
			err: &Error{
				Op:   "Fetch",
				Kind: ErrResourceFetch,
				Msg:  "https://x/y.png",
				Err:  errors.New("status 404"),
			},
			expected: "Fetch: https://x/y.png: resource fetch failed: status 404",
		},
		{
			name: "cause already carrying the kind",
			err: &Error{
				Op:   "Export",
				Kind: ErrCanceled,
				Err:  fmt.Errorf("resolve: %w", ErrCanceled),
			},
			expected: "Export: resolve: export canceled",
		},
		{
			name: "wrapped validation failure keeps its kind",
			err: &Error{
				Op:   "Validate",
				Kind: ErrMalformedTree,
				Err:  errors.New("content[0]: unknown node type"),
			},
			expected: "Validate: malformed document tree: content[0]: unknown node type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Op: "Fetch", Kind: ErrResourceFetch, Err: cause}

	assert.True(t, errors.Is(err, ErrResourceFetch))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMalformedTree))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, errors.Is(wrapped, ErrResourceFetch))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap("Op", ErrPackageWriteFailure, nil))

	first := Wrap("Write", ErrPackageWriteFailure, errors.New("bad rel"))
	second := Wrap("Serialize", ErrPackageWriteFailure, first)
	assert.Same(t, first, second, "same kind should not be wrapped twice")

	third := Wrap("Export", ErrCanceled, first)
	assert.True(t, errors.Is(third, ErrCanceled))
	assert.True(t, errors.Is(third, ErrPackageWriteFailure))
}

func TestUnsupportedNode(t *testing.T) {
	err := UnsupportedNode("Emit", "markdown", "mermaid")

	require.True(t, errors.Is(err, ErrUnsupportedNodeType))

	var typed *UnsupportedTypeError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "markdown", typed.Format)
	assert.Equal(t, "mermaid", typed.Type)
	assert.False(t, typed.Mark)
	assert.Contains(t, err.Error(), `"mermaid"`)
}

func TestUnsupportedMark(t *testing.T) {
	err := UnsupportedMark("Emit", "docx", "comment")

	var typed *UnsupportedTypeError
	require.True(t, errors.As(err, &typed))
	assert.True(t, typed.Mark)
	assert.Equal(t, `Emit: no mark handler for "comment" in format "docx"`, err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrCanceled, KindOf(New("Export", ErrCanceled, "")))
	assert.Equal(t, ErrUnsupportedNodeType, KindOf(UnsupportedNode("Emit", "json", "x")))
	assert.Nil(t, KindOf(errors.New("plain")))
}
