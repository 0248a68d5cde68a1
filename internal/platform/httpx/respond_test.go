package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelopeShape(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	rr := httptest.NewRecorder()
	Error(rr, http.StatusUnauthorized, CodeAuthenticationRequired, "Authentification requise")

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, CodeAuthenticationRequired, errObj["code"])
	assert.Equal(t, "Authentification requise", errObj["message"])
	assert.Equal(t, "2026-03-01T10:00:00Z", errObj["timestamp"])
}

func TestOKWrapsData(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, http.StatusCreated, map[string]string{"id": "42"})

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"42"}}`, rr.Body.String())
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.ma","role":"ADMIN"}`))
	assert.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.ma"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "a@b.ma", target.Email)
}
