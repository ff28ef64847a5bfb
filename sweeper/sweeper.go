package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ajmalps/trovebot/store"
)

const maxErrorChars = 2000

// Gateway is the outbound surface the sweeper needs.
type Gateway interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

type Config struct {
	Enabled bool
	Tick    time.Duration

	// Per-delete gateway call timeout.
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Tick:        5 * time.Second,
		CallTimeout: 15 * time.Second,
	}
}

// Sweeper executes durable deferred message deletions. Jobs live in the
// store, so a pending deletion survives a restart instead of dying with
// an in-memory timer.
type Sweeper struct {
	store *store.Store
	gw    Gateway
	log   *slog.Logger
	cfg   Config

	wg sync.WaitGroup
}

func New(st *store.Store, gw Gateway, cfg Config, log *slog.Logger) (*Sweeper, error) {
	if st == nil {
		return nil, fmt.Errorf("nil store")
	}
	if gw == nil {
		return nil, fmt.Errorf("nil gateway")
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 5 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{store: st, gw: gw, log: log, cfg: cfg}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	recovered, err := s.store.RecoverOrphanedDeleteJobs(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		s.log.Warn("sweeper_recovered_orphaned_jobs", "count", recovered)
	}

	s.log.Info("sweeper_start", "tick_ms", s.cfg.Tick.Milliseconds())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	return nil
}

func (s *Sweeper) Wait() {
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	t := time.NewTicker(s.cfg.Tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper_stop", "reason", ctx.Err().Error())
			return
		case <-t.C:
			s.drainDue(ctx, time.Now().UTC().Unix())
		}
	}
}

// drainDue claims and executes every due job, one at a time.
func (s *Sweeper) drainDue(ctx context.Context, now int64) {
	for {
		job, ok, err := s.store.ClaimDueDeleteJob(ctx, now)
		if err != nil {
			s.log.Warn("sweeper_claim_error", "error", err.Error())
			return
		}
		if !ok {
			return
		}

		var errStr *string
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		if err := s.gw.DeleteMessage(callCtx, job.ChatID, job.MessageID); err != nil {
			// Platform delete is best-effort; the job is still finished.
			msg := truncateString(err.Error(), maxErrorChars)
			errStr = &msg
			s.log.Warn("sweeper_delete_failed", "job_id", job.ID, "chat_id", job.ChatID, "message_id", job.MessageID, "error", msg)
		}
		cancel()

		if err := s.store.FinishDeleteJob(ctx, job.ID, errStr); err != nil {
			s.log.Warn("sweeper_finish_error", "job_id", job.ID, "error", err.Error())
			return
		}
	}
}

func truncateString(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
