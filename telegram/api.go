package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	defaultCallTimeout = 30 * time.Second
)

// ErrRejected marks a call the platform answered with ok=false
// (permission, not-found, rate limit). Always recoverable.
var ErrRejected = errors.New("telegram rejected call")

// ErrRecipientUnreachable marks a private delivery to a user who has no
// private chat open with the bot. Callers should offer a deep link
// instead of retrying.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// RelayMode selects between a provenance-preserving forward and a
// provenance-stripping copy.
type RelayMode string

const (
	RelayForward RelayMode = "forward"
	RelayCopy    RelayMode = "copy"
)

// MembershipStatus is the platform's view of a user inside a channel.
// StatusUnknown covers failed lookups and must be read as "not confirmed".
type MembershipStatus string

const (
	StatusMember        MembershipStatus = "member"
	StatusAdministrator MembershipStatus = "administrator"
	StatusCreator       MembershipStatus = "creator"
	StatusLeft          MembershipStatus = "left"
	StatusKicked        MembershipStatus = "kicked"
	StatusUnknown       MembershipStatus = "unknown"
)

// Confirmed reports whether the status proves current membership.
func (s MembershipStatus) Confirmed() bool {
	return s == StatusMember || s == StatusAdministrator || s == StatusCreator
}

// API is the outbound gateway to the Bot API.
type API struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *slog.Logger
}

func NewAPI(client *http.Client, baseURL, token string, log *slog.Logger) *API {
	if client == nil {
		client = &http.Client{Timeout: defaultCallTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &API{
		httpClient: client,
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		log:        log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func (a *API) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !envelope.OK {
		desc := strings.TrimSpace(envelope.Description)
		if isUnreachableDescription(desc) {
			return fmt.Errorf("%w: %s: %s", ErrRecipientUnreachable, method, desc)
		}
		return fmt.Errorf("%w: %s: %s", ErrRejected, method, desc)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// isUnreachableDescription spots the rejection texts the platform uses
// when a private chat with the recipient does not exist.
func isUnreachableDescription(desc string) bool {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "can't initiate conversation"),
		strings.Contains(d, "bot was blocked"),
		strings.Contains(d, "user is deactivated"),
		strings.Contains(d, "chat not found"):
		return true
	}
	return false
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendText delivers a text message, optionally with an inline keyboard,
// and returns the sent message id.
func (a *API) SendText(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) (int64, error) {
	var sent Message
	err := a.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	}, &sent)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

type relayRequest struct {
	ChatID     int64 `json:"chat_id"`
	FromChatID int64 `json:"from_chat_id"`
	MessageID  int64 `json:"message_id"`
}

type copyMessageResult struct {
	MessageID int64 `json:"message_id"`
}

// RelayFile reproduces originMessageID from originChat inside
// destination and returns the new message id. Forward keeps the origin
// visible to recipients; copy produces an independent message.
func (a *API) RelayFile(ctx context.Context, destination, originChat, originMessageID int64, mode RelayMode) (int64, error) {
	req := relayRequest{
		ChatID:     destination,
		FromChatID: originChat,
		MessageID:  originMessageID,
	}
	switch mode {
	case RelayCopy:
		var res copyMessageResult
		if err := a.call(ctx, "copyMessage", req, &res); err != nil {
			return 0, err
		}
		return res.MessageID, nil
	case RelayForward:
		var sent Message
		if err := a.call(ctx, "forwardMessage", req, &sent); err != nil {
			return 0, err
		}
		return sent.MessageID, nil
	default:
		return 0, fmt.Errorf("unsupported relay mode: %q", mode)
	}
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// DeleteMessage removes a message. Missing delete permission surfaces as
// ErrRejected; callers treat it as best-effort.
func (a *API) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return a.call(ctx, "deleteMessage", deleteMessageRequest{
		ChatID:    chatID,
		MessageID: messageID,
	}, nil)
}

type getChatMemberRequest struct {
	ChatID string `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

// GetMembershipStatus looks the user up in channelRef (numeric id or
// @username). Any failure, network or platform, collapses to
// StatusUnknown.
func (a *API) GetMembershipStatus(ctx context.Context, channelRef string, userID int64) MembershipStatus {
	var member ChatMember
	err := a.call(ctx, "getChatMember", getChatMemberRequest{
		ChatID: strings.TrimSpace(channelRef),
		UserID: userID,
	}, &member)
	if err != nil {
		a.log.Warn("membership_check_failed", "channel", channelRef, "user_id", userID, "error", err.Error())
		return StatusUnknown
	}
	switch MembershipStatus(member.Status) {
	case StatusMember, StatusAdministrator, StatusCreator, StatusLeft, StatusKicked:
		return MembershipStatus(member.Status)
	default:
		return StatusUnknown
	}
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

// AnswerCallback acknowledges an inline button press, optionally with a
// toast shown to the pressing user.
func (a *API) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return a.call(ctx, "answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}, nil)
}

type setWebhookRequest struct {
	URL string `json:"url"`
}

// SetWebhook registers url as the inbound update endpoint.
func (a *API) SetWebhook(ctx context.Context, url string) error {
	return a.call(ctx, "setWebhook", setWebhookRequest{URL: strings.TrimSpace(url)}, nil)
}

type getMeResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// BotUsername asks the platform for the bot's own username, used to
// build deep links.
func (a *API) BotUsername(ctx context.Context) (string, error) {
	var me getMeResult
	if err := a.call(ctx, "getMe", nil, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}
