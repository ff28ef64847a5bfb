package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajmalps/trovebot/archive"
	"github.com/ajmalps/trovebot/retrieval"
	"github.com/ajmalps/trovebot/search"
	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/telegram"
)

// Config is the router-level policy surface.
type Config struct {
	OwnerID          int64
	ForceSubChannel  string
	ForceSubOptional bool

	PageSize      int
	DeliverAllCap int

	// Delay between consecutive broadcast sends.
	BroadcastDelay time.Duration

	// BotUsername builds deep links; resolved via getMe at startup and
	// optional (deep-link affordances degrade to plain instructions).
	BotUsername string
}

// Bot routes inbound events to the archive, search and retrieval
// components. No fault escalates past HandleUpdate.
type Bot struct {
	cfg        Config
	store      *store.Store
	api        *telegram.API
	relay      *archive.Relay
	index      *search.Index
	dispatcher *retrieval.Dispatcher
	gate       *membershipGate
	log        *slog.Logger

	commands map[string]command
}

func New(cfg Config, st *store.Store, api *telegram.API, relay *archive.Relay, index *search.Index, dispatcher *retrieval.Dispatcher, log *slog.Logger) (*Bot, error) {
	if st == nil || api == nil || relay == nil || index == nil || dispatcher == nil {
		return nil, fmt.Errorf("missing dependency")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = search.DefaultPageSize
	}
	if cfg.DeliverAllCap <= 0 {
		cfg.DeliverAllCap = 8
	}
	if cfg.BroadcastDelay <= 0 {
		cfg.BroadcastDelay = 50 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		cfg:        cfg,
		store:      st,
		api:        api,
		relay:      relay,
		index:      index,
		dispatcher: dispatcher,
		gate:       newMembershipGate(api, cfg.ForceSubChannel, cfg.ForceSubOptional),
		log:        log,
	}
	b.commands = commandTable(b)
	return b, nil
}

// HandleUpdate classifies one inbound update and dispatches it. Every
// external call inside is wrapped with local recovery; the webhook
// boundary never sees an error from here.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch ev := telegram.ParseEvent(u).(type) {
	case telegram.TextMessage:
		b.handleText(ctx, ev)
	case telegram.FileMessage:
		b.handleFile(ctx, ev)
	case telegram.CallbackAction:
		b.handleCallback(ctx, ev)
	case telegram.Unknown:
		// Nothing to do.
	}
}

// sendText is the fire-and-forget send used by handlers: failures are
// logged, never raised.
func (b *Bot) sendText(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if _, err := b.api.SendText(ctx, chatID, text, keyboard); err != nil {
		b.log.Warn("send_text_failed", "chat_id", chatID, "error", err.Error())
	}
}
