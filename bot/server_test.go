package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func postWebhook(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWebhookAcknowledgesValidUpdate(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	h := NewServer(b, "", nil).Handler()

	rec := postWebhook(t, h, `{"update_id":1,"message":{"message_id":1,"chat":{"id":7,"type":"private"},"text":"/help"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"ok": true}, decodeBody(t, rec))
}

func TestWebhookAcknowledgesMalformedBody(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	h := NewServer(b, "", nil).Handler()

	// A non-200 would make the platform redeliver the broken payload.
	rec := postWebhook(t, h, `{"update_id": nope`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"ok": true}, decodeBody(t, rec))
}

func TestWebhookAcknowledgesWrongMethod(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	h := NewServer(b, "", nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"ok": true}, decodeBody(t, rec))
}

func TestHealthEndpoint(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	h := NewServer(b, "", nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, rec))

	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
