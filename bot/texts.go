package bot

import (
	"strings"

	"github.com/ajmalps/trovebot/telegram"
)

const startText = "Hello! I index files shared in your chats and keep " +
	"archived copies you can search and fetch later.\n\nUse /help to see commands."

const helpText = `🤖 trovebot commands:

/start - start and show buttons
/help - this help text
/stats - totals for users, groups and files
/getall <name> - fetch every archived file matching a name
/broadcast <text> - owner only, message all known users
/remove <chat id> <message id> - owner only, delete an archived copy
/filter_add, /filter_del, /filter_list - manage banned words

Send any file (document, photo, video, audio, voice) in a chat where I
am present and I will index it. In private chat, just type part of a
file name to search the archive.`

const addGroupText = "To register a channel or group: add the bot as admin " +
	"there and send any message. Files posted in that chat will be indexed " +
	"and archived."

func startKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Help / Commands", CallbackData: cbHelp}},
			{{Text: "Add to Channel/Group", CallbackData: cbAddGroup}},
		},
	}
}

func joinPromptText(channel string) string {
	return "You need to join " + channel + " before using the bot."
}

// joinKeyboard renders a join button when the channel ref is a public
// @username; numeric refs have no viewable link.
func joinKeyboard(channel string) *telegram.InlineKeyboardMarkup {
	if !strings.HasPrefix(channel, "@") {
		return nil
	}
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Join channel", URL: "https://t.me/" + strings.TrimPrefix(channel, "@")}},
		},
	}
}
