package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTextReturnsMessageID(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":321,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "token", nil)
	id, err := api.SendText(context.Background(), 42, "hello", nil)
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if id != 321 {
		t.Fatalf("message id = %d, want 321", id)
	}
	if got.ChatID != 42 || got.Text != "hello" {
		t.Fatalf("unexpected request: %#v", got)
	}
}

func TestRelayFileModeSelectsMethod(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/bottoken/forwardMessage":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":11,"chat":{"id":-900,"type":"channel"}}}`))
		case "/bottoken/copyMessage":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":22}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "token", nil)

	id, err := api.RelayFile(context.Background(), -900, 100, 5, RelayForward)
	if err != nil {
		t.Fatalf("RelayFile(forward) error = %v", err)
	}
	if id != 11 {
		t.Fatalf("forward message id = %d, want 11", id)
	}

	id, err = api.RelayFile(context.Background(), 42, -900, 11, RelayCopy)
	if err != nil {
		t.Fatalf("RelayFile(copy) error = %v", err)
	}
	if id != 22 {
		t.Fatalf("copy message id = %d, want 22", id)
	}

	if len(paths) != 2 || paths[0] != "/bottoken/forwardMessage" || paths[1] != "/bottoken/copyMessage" {
		t.Fatalf("unexpected call sequence: %#v", paths)
	}

	if _, err := api.RelayFile(context.Background(), 1, 2, 3, RelayMode("move")); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func TestCallRejectionMapsToSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/deleteMessage":
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: message can't be deleted"}`))
		case "/bottoken/copyMessage":
			_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot can't initiate conversation with a user"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "token", nil)

	err := api.DeleteMessage(context.Background(), 1, 2)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("DeleteMessage() error = %v, want ErrRejected", err)
	}

	_, err = api.RelayFile(context.Background(), 42, -900, 11, RelayCopy)
	if !errors.Is(err, ErrRecipientUnreachable) {
		t.Fatalf("RelayFile() error = %v, want ErrRecipientUnreachable", err)
	}
}

func TestGetMembershipStatus(t *testing.T) {
	status := `{"ok":true,"result":{"status":"administrator","user":{"id":42}}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/getChatMember" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(status))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "token", nil)

	got := api.GetMembershipStatus(context.Background(), "@channel", 42)
	if got != StatusAdministrator {
		t.Fatalf("status = %q, want administrator", got)
	}
	if !got.Confirmed() {
		t.Fatalf("administrator should be confirmed")
	}

	// Platform rejection collapses to unknown, never an error.
	status = `{"ok":false,"description":"Bad Request: user not found"}`
	got = api.GetMembershipStatus(context.Background(), "@channel", 42)
	if got != StatusUnknown {
		t.Fatalf("status = %q, want unknown", got)
	}
	if got.Confirmed() {
		t.Fatalf("unknown must not be confirmed")
	}

	// Unexpected status strings collapse to unknown as well.
	status = `{"ok":true,"result":{"status":"restricted","user":{"id":42}}}`
	got = api.GetMembershipStatus(context.Background(), "@channel", 42)
	if got != StatusUnknown {
		t.Fatalf("status = %q, want unknown", got)
	}
}
