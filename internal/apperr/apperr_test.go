package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"studyboard/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("delete board: %w", apperr.BatchWrite(errors.New("connection reset")))

	assert.True(t, errors.Is(err, apperr.ErrBatchWrite))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.ChildEnumeration(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Code.Retryable())
}

func TestCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, apperr.NotFound("x").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, apperr.Validation("x").HTTPStatus())
	assert.Equal(t, http.StatusConflict, apperr.Invariant("x").HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, apperr.BatchWrite(nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, apperr.Internal("x", nil).HTTPStatus())
}
