package errors_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JingliCheng/Fireball/internal/errors"
)

func TestDomainError_MessageIncludesTypeAndCause(t *testing.T) {
	err := errors.MalformedState("queue file is corrupt", io.ErrUnexpectedEOF)

	assert.Contains(t, err.Error(), "MALFORMED_STATE")
	assert.Contains(t, err.Error(), "queue file is corrupt")
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
	assert.NotEmpty(t, err.StackTrace())
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := io.ErrClosedPipe
	err := errors.Internal("writing queue file", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	notFound := errors.NotFound("backup directory not found", nil)
	wrapped := fmt.Errorf("restore failed: %w", notFound)

	assert.True(t, errors.IsNotFound(notFound))
	assert.True(t, errors.IsNotFound(wrapped))
	assert.False(t, errors.IsNotFound(errors.Internal("boom", nil)))
	assert.False(t, errors.IsNotFound(io.EOF))
}
