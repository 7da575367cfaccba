package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "api error with code",
			err:      API("fetch page", 503, "non-success status", nil),
			expected: "fetch page: api error (code 503): non-success status",
		},
		{
			name:     "download error with cause",
			err:      Download("http://x/a.jpg", 0, io.ErrUnexpectedEOF),
			expected: "download: download error [http://x/a.jpg]: unexpected EOF",
		},
		{
			name:     "validation error",
			err:      Validation("/tmp/in", "not a directory"),
			expected: "validate: validation error [/tmp/in]: not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsType(t *testing.T) {
	base := Extraction("/img/a.jpg", "decode failed", io.EOF)
	wrapped := fmt.Errorf("batch aborted: %w", base)

	assert.True(t, IsType(wrapped, ErrorTypeExtraction))
	assert.False(t, IsType(wrapped, ErrorTypeDownload))
	assert.False(t, IsType(io.EOF, ErrorTypeExtraction))
	assert.Equal(t, ErrorTypeExtraction, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
}

func TestErrorsIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("/in", "no pictures"))

	assert.True(t, stderrors.Is(err, &Error{Type: ErrorTypeNotFound}))
	assert.False(t, stderrors.Is(err, &Error{Type: ErrorTypeAPI}))
}

func TestUnwrap(t *testing.T) {
	err := Wrap(ErrorTypeDownload, "save", io.ErrShortWrite)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
