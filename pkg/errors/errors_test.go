package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"plain error", fmt.Errorf("connection refused"), ErrorTypeTransport},
		{"shape passthrough", NewShapeError("missing data"), ErrorTypeShape},
		{"wrapped app error", fmt.Errorf("fetch: %w", NewValidationError("x")), ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type)
		})
	}

	assert.Nil(t, Classify(nil))
}

func TestAppError_Retryable(t *testing.T) {
	assert.True(t, NewTimeoutError("t", nil).Retryable())
	assert.True(t, NewStatusError(500).Retryable())
	assert.True(t, NewShapeError("s").Retryable())
	assert.False(t, NewValidationError("v").Retryable())
	assert.False(t, NewNotFoundError("n").Retryable())
}

func TestAppError_UserMessage(t *testing.T) {
	// transport and shape failures read the same to the operator
	assert.Equal(t, NewStatusError(503).UserMessage(), NewShapeError("no data").UserMessage())
	assert.Equal(t, "Digite ao menos 3 caracteres para buscar", NewSearchTooShortError(3).UserMessage())
	assert.NotEqual(t, NewTimeoutError("t", nil).UserMessage(), NewStatusError(503).UserMessage())
}

func TestAppError_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("v").HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, NewTimeoutError("t", nil).HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, NewShapeError("s").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("n").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewInternalError("i", nil).HTTPStatus())
}

func TestStatusError(t *testing.T) {
	err := NewStatusError(404)
	assert.Equal(t, 404, err.StatusCode)
	assert.True(t, IsType(err, ErrorTypeTransport))
	assert.Contains(t, err.Error(), "status 404")
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(fmt.Errorf("do: %w", context.Canceled)))
	assert.False(t, IsCanceled(context.DeadlineExceeded))
}
