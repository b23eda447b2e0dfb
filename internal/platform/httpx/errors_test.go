package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

// Module sentinels are defined as wraps of the httpx sentinels. These mirror
// that shape so the mapping is exercised the way services actually fail.
var (
	errNoteNotFound = fmt.Errorf("creditnotes: %w", ErrNotFound)
	errNoteState    = fmt.Errorf("creditnotes: %w", ErrInvalidState)
	errNoteInvalid  = fmt.Errorf("creditnotes: %w", ErrValidation)
)

func respond(t *testing.T, err error) (int, ProblemDetail) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)
	var pd ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pd))
	return rec.Code, pd
}

func TestRespondErrorMapsWrappedSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not found", errNoteNotFound, http.StatusNotFound, "Not Found"},
		{"invalid state with detail", fmt.Errorf("%w: only draft credit notes can be edited", errNoteState), http.StatusConflict, "Invalid State"},
		{"validation with detail", fmt.Errorf("%w: a direct credit note needs at least one line", errNoteInvalid), http.StatusBadRequest, "Validation Failed"},
		{"duplicate", fmt.Errorf("customers: %w", ErrDuplicate), http.StatusConflict, "Duplicate"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, pd := respond(t, tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.title, pd.Title)
			require.NotEmpty(t, pd.Detail, "domain errors carry their message to the client")
		})
	}
}

func TestRespondErrorMapsEngineErrors(t *testing.T) {
	engineErrs := []error{
		&docengine.QuantityExceedsOriginalError{Entered: 5, Original: 4},
		&docengine.DiscountLockedError{},
		&docengine.SerialCountMismatchError{Required: 2, Got: 1},
		fmt.Errorf("line 3: %w", docengine.ErrInvalidValue),
	}
	for _, err := range engineErrs {
		status, pd := respond(t, err)
		require.Equal(t, http.StatusUnprocessableEntity, status)
		require.Equal(t, "Document Rule Violation", pd.Title)
	}
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	status, pd := respond(t, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Empty(t, pd.Detail, "internal errors must not leak to the client")
}
