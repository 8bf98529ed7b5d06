package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oms/backend/internal/domain/shared"
)

func TestHTTPStatusForKind(t *testing.T) {
	tests := []struct {
		kind shared.ErrorKind
		want int
	}{
		{shared.KindValidation, http.StatusBadRequest},
		{shared.KindConflict, http.StatusConflict},
		{shared.KindNotFound, http.StatusNotFound},
		{shared.KindFailure, http.StatusInternalServerError},
		{shared.ErrorKind("BOGUS"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusForKind(tt.kind))
		})
	}
}

func TestHTTPStatusForError(t *testing.T) {
	t.Run("domain errors map by kind", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, HTTPStatusForError(shared.ErrConcurrencyConflict))
		assert.Equal(t, http.StatusNotFound, HTTPStatusForError(shared.NewNotFoundError("ORDER_NOT_FOUND", "gone")))
	})

	t.Run("wrapped domain errors keep their kind", func(t *testing.T) {
		wrapped := fmt.Errorf("saving order: %w", shared.NewValidationError("INVALID_CURRENCY", "bad"))
		assert.Equal(t, http.StatusBadRequest, HTTPStatusForError(wrapped))
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, HTTPStatusForError(errors.New("boom")))
	})
}
