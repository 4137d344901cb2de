package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOKMergesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, Fields{"stockUpdated": true, "ok": false})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"ok": true, "stockUpdated": true}, decode(t, rec))
}

func TestErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "Order not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"error": "Order not found"}, decode(t, rec))
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"email": "must be a valid email"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Equal(t, map[string]any{"email": "must be a valid email"}, body["fields"])
}
