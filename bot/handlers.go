package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajmalps/trovebot/db/models"
	"github.com/ajmalps/trovebot/search"
	"github.com/ajmalps/trovebot/telegram"
)

const broadcastTimeout = 30 * time.Minute

func (b *Bot) cmdStart(ctx context.Context, ev telegram.TextMessage, arg string) {
	// Deep-link payload: /start get_<dest>_<msgid> delivers directly.
	if dest, msgID, ok := parseDeepLinkPayload(arg); ok {
		if !b.passGate(ctx, ev.Chat.ID, ev.From.ID) {
			return
		}
		if err := b.dispatcher.DeliverByReference(ctx, dest, msgID, ev.Chat.ID); err != nil {
			b.log.Warn("deep_link_delivery_failed", "destination", dest, "message_id", msgID, "error", err.Error())
			b.sendText(ctx, ev.Chat.ID, "Could not fetch that file. It may have been removed.", nil)
		}
		return
	}
	b.sendText(ctx, ev.Chat.ID, startText, startKeyboard())
}

func (b *Bot) cmdHelp(ctx context.Context, ev telegram.TextMessage, _ string) {
	b.sendText(ctx, ev.Chat.ID, helpText, nil)
}

func (b *Bot) cmdStats(ctx context.Context, ev telegram.TextMessage, _ string) {
	users, err := b.store.CountParticipants(ctx)
	if err != nil {
		b.sendText(ctx, ev.Chat.ID, "Stats are unavailable right now.", nil)
		return
	}
	groups, _ := b.store.CountGroups(ctx)
	files, _ := b.store.CountFileEntries(ctx)
	b.sendText(ctx, ev.Chat.ID, fmt.Sprintf(
		"📊 Stats:\n- Users: %d\n- Groups/channels: %d\n- Files indexed: %d", users, groups, files), nil)
}

func (b *Bot) cmdBroadcast(ctx context.Context, ev telegram.TextMessage, arg string) {
	if arg == "" {
		if err := b.store.ArmBroadcast(ctx, ev.From.ID); err != nil {
			b.sendText(ctx, ev.Chat.ID, "Could not arm broadcast, try again.", nil)
			return
		}
		b.sendText(ctx, ev.Chat.ID, "Send the broadcast text as your next message.", nil)
		return
	}
	go b.runBroadcast(arg)
	b.sendText(ctx, ev.Chat.ID, "Broadcast started.", nil)
}

func (b *Bot) cmdGetAll(ctx context.Context, ev telegram.TextMessage, arg string) {
	if !b.passGate(ctx, ev.Chat.ID, ev.From.ID) {
		return
	}
	delivered, total, err := b.dispatcher.DeliverAll(ctx, arg, ev.From.ID, b.cfg.DeliverAllCap)
	if err != nil {
		b.sendText(ctx, ev.Chat.ID, "Could not run that retrieval, try again later.", nil)
		return
	}
	if total == 0 {
		b.sendText(ctx, ev.Chat.ID, fmt.Sprintf("No archived files match %q.", arg), nil)
		return
	}
	b.sendText(ctx, ev.Chat.ID, fmt.Sprintf("%d of %d delivered.", delivered, total), nil)
}

func (b *Bot) cmdRemove(ctx context.Context, ev telegram.TextMessage, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		b.sendText(ctx, ev.Chat.ID, "Usage: /remove <archive chat id> <message id>", nil)
		return
	}
	dest, err1 := strconv.ParseInt(fields[0], 10, 64)
	msgID, err2 := strconv.ParseInt(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.sendText(ctx, ev.Chat.ID, "Both arguments must be numeric ids.", nil)
		return
	}
	found, err := b.dispatcher.RemoveByMapping(ctx, dest, msgID)
	if err != nil {
		b.sendText(ctx, ev.Chat.ID, "Removal failed, try again later.", nil)
		return
	}
	if !found {
		b.sendText(ctx, ev.Chat.ID, "No archived file with that mapping.", nil)
		return
	}
	b.sendText(ctx, ev.Chat.ID, "Removed.", nil)
}

func (b *Bot) cmdFilterAdd(ctx context.Context, ev telegram.TextMessage, arg string) {
	word := strings.ToLower(strings.Fields(arg)[0])
	if err := b.store.AddBannedWord(ctx, word); err != nil {
		b.sendText(ctx, ev.Chat.ID, "Could not save the word.", nil)
		return
	}
	b.sendText(ctx, ev.Chat.ID, fmt.Sprintf("Added banned word: %s", word), nil)
}

func (b *Bot) cmdFilterDel(ctx context.Context, ev telegram.TextMessage, arg string) {
	word := strings.ToLower(strings.Fields(arg)[0])
	removed, err := b.store.RemoveBannedWord(ctx, word)
	if err != nil {
		b.sendText(ctx, ev.Chat.ID, "Could not remove the word.", nil)
		return
	}
	if !removed {
		b.sendText(ctx, ev.Chat.ID, "That word is not on the list.", nil)
		return
	}
	b.sendText(ctx, ev.Chat.ID, fmt.Sprintf("Removed banned word: %s", word), nil)
}

func (b *Bot) cmdFilterList(ctx context.Context, ev telegram.TextMessage, _ string) {
	words, err := b.store.ListBannedWords(ctx)
	if err != nil {
		b.sendText(ctx, ev.Chat.ID, "Filter list is unavailable right now.", nil)
		return
	}
	if len(words) == 0 {
		b.sendText(ctx, ev.Chat.ID, "No banned words configured.", nil)
		return
	}
	b.sendText(ctx, ev.Chat.ID, "Banned words:\n"+strings.Join(words, "\n"), nil)
}

// applyTextFilter checks group text against the banned-word list.
// Returns true when the message was handled (matched).
func (b *Bot) applyTextFilter(ctx context.Context, ev telegram.TextMessage) bool {
	words, err := b.store.ListBannedWords(ctx)
	if err != nil || len(words) == 0 {
		return false
	}
	lower := strings.ToLower(ev.Text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			if err := b.api.DeleteMessage(ctx, ev.Chat.ID, ev.MessageID); err != nil {
				b.log.Warn("filter_delete_failed", "chat_id", ev.Chat.ID, "message_id", ev.MessageID, "error", err.Error())
			}
			b.sendText(ctx, ev.Chat.ID, "Message removed for policy violation.", nil)
			return true
		}
	}
	return false
}

// askSearchConfirmation prompts in multi-party chats instead of
// revealing results directly. Only the originating participant's
// confirmation proceeds.
func (b *Bot) askSearchConfirmation(ctx context.Context, ev telegram.TextMessage, fragment string) {
	kb := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "Yes, search", CallbackData: encodeConfirm(ev.From.ID, fragment)},
		}},
	}
	b.sendText(ctx, ev.Chat.ID, fmt.Sprintf("Search the archive for %q?", truncateFragment(fragment)), kb)
}

func (b *Bot) handleFile(ctx context.Context, ev telegram.FileMessage) {
	b.observe(ctx, ev.Chat, ev.From)

	if ev.Chat.Type == models.ChatKindPrivate && !b.passGate(ctx, ev.Chat.ID, ev.From.ID) {
		return
	}

	entryID, archived, err := b.relay.Process(ctx, ev)
	if err != nil {
		b.log.Warn("file_intake_failed", "chat_id", ev.Chat.ID, "message_id", ev.MessageID, "error", err.Error())
		b.sendText(ctx, ev.Chat.ID, "Could not save the file, try again later.", nil)
		return
	}
	b.log.Info("file_indexed", "entry_id", entryID, "archived", archived)
	// The acknowledgment claims metadata capture only; archival is
	// best-effort and not promised here.
	b.sendText(ctx, ev.Chat.ID, "File saved ✅", nil)
}

func (b *Bot) handleCallback(ctx context.Context, ev telegram.CallbackAction) {
	answer := func(text string, alert bool) {
		if err := b.api.AnswerCallback(ctx, ev.ID, text, alert); err != nil {
			b.log.Warn("callback_answer_failed", "error", err.Error())
		}
	}
	chatID := ev.From.ID
	if ev.Chat != nil {
		chatID = ev.Chat.ID
	}

	switch {
	case ev.Data == cbNoop:
		answer("", false)

	case ev.Data == cbHelp:
		answer("", false)
		b.sendText(ctx, ev.From.ID, helpText, nil)

	case ev.Data == cbAddGroup:
		answer("", false)
		b.sendText(ctx, ev.From.ID, addGroupText, nil)

	case strings.HasPrefix(ev.Data, cbPrefixConfirm+":"):
		uid, fragment, ok := decodeConfirm(ev.Data)
		if !ok {
			answer("Stale button.", false)
			return
		}
		if ev.From.ID != uid {
			// Someone else pressed the button; never reveal results.
			answer("This confirmation belongs to another user.", true)
			return
		}
		answer("", false)
		b.renderResults(ctx, chatID, uid, fragment, 1)

	case strings.HasPrefix(ev.Data, cbPrefixPage+":"):
		uid, page, fragment, ok := decodePage(ev.Data)
		if !ok {
			answer("Stale button.", false)
			return
		}
		if ev.From.ID != uid {
			answer("This result set belongs to another user.", true)
			return
		}
		answer("", false)
		b.renderResults(ctx, chatID, uid, fragment, page)

	case strings.HasPrefix(ev.Data, cbPrefixDeliver+":"):
		dest, msgID, ok := decodeMapping(cbPrefixDeliver, ev.Data)
		if !ok {
			answer("Stale button.", false)
			return
		}
		if !b.passGate(ctx, ev.From.ID, ev.From.ID) {
			answer("Join the required channel first.", true)
			return
		}
		err := b.dispatcher.DeliverByReference(ctx, dest, msgID, ev.From.ID)
		switch {
		case err == nil:
			answer("Sent to your private chat.", false)
		case errors.Is(err, telegram.ErrRecipientUnreachable):
			answer("Open the bot in private chat first.", true)
			b.offerDeepLink(ctx, chatID, dest, msgID)
		default:
			b.log.Warn("delivery_failed", "destination", dest, "message_id", msgID, "error", err.Error())
			answer("Delivery failed; the copy may have been removed.", true)
		}

	case strings.HasPrefix(ev.Data, cbPrefixRemove+":"):
		if ev.From.ID != b.cfg.OwnerID {
			answer("Owner only.", true)
			return
		}
		dest, msgID, ok := decodeMapping(cbPrefixRemove, ev.Data)
		if !ok {
			answer("Stale button.", false)
			return
		}
		found, err := b.dispatcher.RemoveByMapping(ctx, dest, msgID)
		if err != nil || !found {
			answer("Removal failed.", true)
			return
		}
		answer("Removed.", false)

	default:
		answer("", false)
	}
}

// offerDeepLink posts a deep-link button so an unreachable recipient can
// open the bot and retry. Degrades to plain instructions when the bot
// username is unknown.
func (b *Bot) offerDeepLink(ctx context.Context, chatID, dest, msgID int64) {
	if b.cfg.BotUsername == "" {
		b.sendText(ctx, chatID, "Start the bot in a private chat, then press the file button again.", nil)
		return
	}
	url := fmt.Sprintf("https://t.me/%s?start=get_%d_%d", b.cfg.BotUsername, dest, msgID)
	kb := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "Open bot", URL: url},
		}},
	}
	b.sendText(ctx, chatID, "Open the bot in private chat to receive the file:", kb)
}

// renderResults runs the search and posts one page with retrieval
// buttons. Unarchived entries render as disabled rows.
func (b *Bot) renderResults(ctx context.Context, chatID, requesterID int64, fragment string, pageNumber int) {
	entries, err := b.index.Search(ctx, fragment, search.DefaultLimit)
	if err != nil {
		b.log.Warn("search_failed", "fragment", fragment, "error", err.Error())
		b.sendText(ctx, chatID, "Search is unavailable right now.", nil)
		return
	}
	if len(entries) == 0 {
		b.sendText(ctx, chatID, fmt.Sprintf("No files matching %q.", fragment), nil)
		return
	}

	page := search.Paginate(entries, b.cfg.PageSize, pageNumber)
	rows := make([][]telegram.InlineKeyboardButton, 0, len(page.Rows)+1)
	for _, row := range page.Rows {
		btn := telegram.InlineKeyboardButton{Text: row.Label, CallbackData: cbNoop}
		if row.Ref != nil {
			btn.CallbackData = encodeDeliver(row.Ref.Destination, row.Ref.ArchiveMessageID)
		} else {
			btn.Text = row.Label + " (not archived)"
		}
		rows = append(rows, []telegram.InlineKeyboardButton{btn})
	}
	if page.Total > 1 {
		nav := make([]telegram.InlineKeyboardButton, 0, 3)
		if page.Number > 1 {
			nav = append(nav, telegram.InlineKeyboardButton{Text: "« Prev", CallbackData: encodePage(requesterID, page.Number-1, fragment)})
		}
		nav = append(nav, telegram.InlineKeyboardButton{Text: fmt.Sprintf("%d/%d", page.Number, page.Total), CallbackData: cbNoop})
		if page.Number < page.Total {
			nav = append(nav, telegram.InlineKeyboardButton{Text: "Next »", CallbackData: encodePage(requesterID, page.Number+1, fragment)})
		}
		rows = append(rows, nav)
	}

	text := fmt.Sprintf("Results for %q (page %d/%d):", fragment, page.Number, page.Total)
	b.sendText(ctx, chatID, text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

// runBroadcast iterates every stored participant with a small
// inter-send delay and reports the outcome to the owner. Runs in its
// own goroutine; partial failure is expected.
func (b *Bot) runBroadcast(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	ids, err := b.store.ListParticipantIDs(ctx)
	if err != nil {
		b.log.Warn("broadcast_list_failed", "error", err.Error())
		return
	}
	sent, failed := 0, 0
	for _, id := range ids {
		if _, err := b.api.SendText(ctx, id, text, nil); err != nil {
			failed++
		} else {
			sent++
		}
		time.Sleep(b.cfg.BroadcastDelay)
	}
	b.log.Info("broadcast_finished", "sent", sent, "failed", failed)
	if b.cfg.OwnerID != 0 {
		b.sendText(ctx, b.cfg.OwnerID, fmt.Sprintf("Broadcast finished: %d sent, %d failed.", sent, failed), nil)
	}
}

func parseDeepLinkPayload(arg string) (dest, msgID int64, ok bool) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "get_") {
		return 0, 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(arg, "get_"), "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	dest, err1 := strconv.ParseInt(parts[0], 10, 64)
	msgID, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return dest, msgID, true
}
