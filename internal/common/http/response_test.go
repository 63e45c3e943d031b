package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/monzo/internal/common/errors"
)

func TestHandleError_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.Wrap(errors.ErrNotFound, "account acc_1"), http.StatusNotFound},
		{"invalid input", errors.ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", errors.ErrUnauthorized, http.StatusUnauthorized},
		{"bad signature", errors.ErrInvalidSignature, http.StatusUnauthorized},
		{"not configured", errors.ErrNotConfigured, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)

			assert.Equal(t, tc.want, rec.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tc.err.Error(), resp.Error)
		})
	}
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"status": "accepted"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"status":"accepted"}}`, rec.Body.String())
}

func TestHTML_EscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	HTML(rec, http.StatusOK, "Monzo", "<script>x</script>")

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}
