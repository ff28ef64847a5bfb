package bot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ajmalps/trovebot/telegram"
)

const (
	maxUpdateBytes = 1 << 20

	// Per-update processing deadline once detached from the HTTP request.
	updateTimeout = 30 * time.Second
)

// Server is the inbound webhook endpoint. It acknowledges every update
// promptly with 200 {"ok":true} regardless of internal outcome, so the
// platform never retry-storms, and hands processing to background work.
type Server struct {
	bot    *Bot
	listen string
	log    *slog.Logger
}

func NewServer(b *Bot, listen string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	listen = strings.TrimSpace(listen)
	if listen == "" {
		listen = "127.0.0.1:8080"
	}
	return &Server{bot: b, listen: listen, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()
	s.log.Info("webhook_server_start", "listen", s.listen)
	err := httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	// Always acknowledge; a non-200 would make the platform redeliver.
	defer writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	if r.Method != http.MethodPost {
		return
	}
	var update telegram.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		s.log.Warn("webhook_decode_failed", "error", err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		s.bot.HandleUpdate(ctx, update)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
