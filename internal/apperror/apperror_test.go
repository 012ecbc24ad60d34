package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("creating sale: %w", InvalidInput("insufficient stock for %s", "Aspirin"))

	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.True(t, Is(err, KindInvalidInput))
	assert.Equal(t, "insufficient stock for Aspirin", Message(err))
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("unable to create purchase", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "unable to create purchase: disk full", err.Error())
	assert.Equal(t, "unable to create purchase", Message(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:     http.StatusNotFound,
		KindInvalidInput: http.StatusBadRequest,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), string(kind))
	}
}
