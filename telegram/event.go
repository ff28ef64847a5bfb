package telegram

import "strings"

// Event is the closed set of inbound event shapes. It is built once at
// the webhook boundary so downstream handlers switch on concrete types
// instead of probing optional update fields.
type Event interface {
	isEvent()
}

// TextMessage is a plain text (or caption-only command) message.
type TextMessage struct {
	Chat      Chat
	From      User
	MessageID int64
	Text      string
}

// FileMessage carries exactly one attachment variant.
type FileMessage struct {
	Chat      Chat
	From      User
	MessageID int64
	Caption   string

	Document *Document
	Photo    []PhotoSize
	Video    *Video
	Audio    *Audio
	Voice    *Voice
}

// CallbackAction is an inline-keyboard button press.
type CallbackAction struct {
	ID        string
	From      User
	Data      string
	Chat      *Chat
	MessageID int64
}

// Unknown is anything the bot does not handle.
type Unknown struct{}

func (TextMessage) isEvent()    {}
func (FileMessage) isEvent()    {}
func (CallbackAction) isEvent() {}
func (Unknown) isEvent()        {}

// ParseEvent classifies an update. Edited messages are treated like new
// ones; updates with neither message nor callback are Unknown.
func ParseEvent(u Update) Event {
	if cb := u.CallbackQuery; cb != nil {
		action := CallbackAction{
			ID:   cb.ID,
			From: cb.From,
			Data: strings.TrimSpace(cb.Data),
		}
		if cb.Message != nil {
			chat := cb.Message.Chat
			action.Chat = &chat
			action.MessageID = cb.Message.MessageID
		}
		return action
	}

	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil {
		return Unknown{}
	}

	var from User
	if msg.From != nil {
		from = *msg.From
	}

	if msg.Document != nil || len(msg.Photo) > 0 || msg.Video != nil || msg.Audio != nil || msg.Voice != nil {
		return FileMessage{
			Chat:      msg.Chat,
			From:      from,
			MessageID: msg.MessageID,
			Caption:   msg.Caption,
			Document:  msg.Document,
			Photo:     msg.Photo,
			Video:     msg.Video,
			Audio:     msg.Audio,
			Voice:     msg.Voice,
		}
	}

	text := msg.Text
	if strings.TrimSpace(text) == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return Unknown{}
	}
	return TextMessage{
		Chat:      msg.Chat,
		From:      from,
		MessageID: msg.MessageID,
		Text:      text,
	}
}
