package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/ajmalps/trovebot/db/models"
	"github.com/ajmalps/trovebot/search"
	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/telegram"
)

// command is one entry of the explicit command grammar table.
type command struct {
	handler     func(ctx context.Context, ev telegram.TextMessage, arg string)
	ownerOnly   bool
	requiresArg bool
	usage       string
}

func commandTable(b *Bot) map[string]command {
	return map[string]command{
		"/start":       {handler: b.cmdStart},
		"/help":        {handler: b.cmdHelp},
		"/stats":       {handler: b.cmdStats},
		"/broadcast":   {handler: b.cmdBroadcast, ownerOnly: true},
		"/getall":      {handler: b.cmdGetAll, requiresArg: true, usage: "/getall <name fragment>"},
		"/remove":      {handler: b.cmdRemove, ownerOnly: true, requiresArg: true, usage: "/remove <archive chat id> <message id>"},
		"/filter_add":  {handler: b.cmdFilterAdd, ownerOnly: true, requiresArg: true, usage: "/filter_add <word>"},
		"/filter_del":  {handler: b.cmdFilterDel, ownerOnly: true, requiresArg: true, usage: "/filter_del <word>"},
		"/filter_list": {handler: b.cmdFilterList},
	}
}

func (b *Bot) handleText(ctx context.Context, ev telegram.TextMessage) {
	b.observe(ctx, ev.Chat, ev.From)

	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, "/") {
		b.dispatchCommand(ctx, ev, text)
		return
	}

	// A pending broadcast session consumes the owner's next text message.
	if ev.From.ID == b.cfg.OwnerID && ev.Chat.Type == models.ChatKindPrivate {
		consumed, err := b.store.ConsumeBroadcast(ctx, ev.From.ID)
		if err != nil {
			b.log.Warn("broadcast_session_lookup_failed", "error", err.Error())
		} else if consumed {
			go b.runBroadcast(text)
			b.sendText(ctx, ev.Chat.ID, "Broadcast started.", nil)
			return
		}
	}

	if models.IsMultiParty(ev.Chat.Type) {
		if b.applyTextFilter(ctx, ev) {
			return
		}
		if search.IsLikelySearchQuery(text) {
			b.askSearchConfirmation(ctx, ev, text)
		}
		return
	}

	if ev.Chat.Type == models.ChatKindPrivate && search.IsLikelySearchQuery(text) {
		if !b.passGate(ctx, ev.Chat.ID, ev.From.ID) {
			return
		}
		b.renderResults(ctx, ev.Chat.ID, ev.From.ID, text, 1)
	}
}

func (b *Bot) dispatchCommand(ctx context.Context, ev telegram.TextMessage, text string) {
	token := text
	arg := ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		token = text[:i]
		arg = strings.TrimSpace(text[i+1:])
	}
	token = strings.ToLower(token)
	// Commands in groups may arrive as /cmd@botname.
	if i := strings.Index(token, "@"); i >= 0 {
		token = token[:i]
	}

	cmd, ok := b.commands[token]
	if !ok {
		if ev.Chat.Type == models.ChatKindPrivate {
			b.sendText(ctx, ev.Chat.ID, "Unknown command. Try /help.", nil)
		}
		return
	}
	if cmd.ownerOnly && ev.From.ID != b.cfg.OwnerID {
		b.sendText(ctx, ev.Chat.ID, "This command is owner-only.", nil)
		return
	}
	if cmd.requiresArg && arg == "" {
		b.sendText(ctx, ev.Chat.ID, "Usage: "+cmd.usage, nil)
		return
	}
	cmd.handler(ctx, ev, arg)
}

// observe records the participant and, for multi-party chats, the chat
// itself. Store unavailability here is non-fatal and skipped silently
// aside from a log line.
func (b *Bot) observe(ctx context.Context, chat telegram.Chat, from telegram.User) {
	if from.ID != 0 {
		attrs := store.ParticipantAttrs{DisplayName: displayName(from)}
		if from.Username != "" {
			u := from.Username
			attrs.Handle = &u
		}
		if err := b.store.UpsertParticipant(ctx, from.ID, attrs); err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				b.log.Warn("participant_upsert_skipped", "error", err.Error())
			}
		}
	}
	if chat.Type != models.ChatKindPrivate && chat.ID != 0 {
		err := b.store.UpsertGroup(ctx, chat.ID, store.GroupAttrs{Kind: chat.Type, Title: chat.Title})
		if err != nil && errors.Is(err, store.ErrUnavailable) {
			b.log.Warn("group_upsert_skipped", "error", err.Error())
		}
	}
}

// passGate runs the force-subscription check for private interactions.
// It reports whether handling may proceed, sending the join prompt or
// warning itself.
func (b *Bot) passGate(ctx context.Context, chatID, userID int64) bool {
	if userID == b.cfg.OwnerID {
		return true
	}
	switch b.gate.Check(ctx, userID) {
	case gateAllow:
		return true
	case gateWarn:
		b.log.Warn("membership_ambiguous_continue", "user_id", userID)
		return true
	default:
		b.sendText(ctx, chatID, joinPromptText(b.cfg.ForceSubChannel), joinKeyboard(b.cfg.ForceSubChannel))
		return false
	}
}

func displayName(u telegram.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
