package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Callback data layout. The platform caps callback payloads at 64
// bytes, so fragments are truncated on encode.
const (
	cbHelp     = "help"
	cbAddGroup = "addgrp"
	cbNoop     = "noop"

	cbPrefixConfirm  = "cfm"
	cbPrefixPage     = "pg"
	cbPrefixDeliver  = "get"
	cbPrefixRemove   = "del"
	maxFragmentBytes = 28
)

func truncateFragment(fragment string) string {
	cut := strings.TrimSpace(fragment)
	// Trim whole runes until the payload fits.
	for len(cut) > maxFragmentBytes {
		_, size := utf8.DecodeLastRuneInString(cut)
		cut = cut[:len(cut)-size]
	}
	return cut
}

func encodeConfirm(userID int64, fragment string) string {
	return fmt.Sprintf("%s:%d:%s", cbPrefixConfirm, userID, truncateFragment(fragment))
}

func encodePage(userID int64, page int, fragment string) string {
	return fmt.Sprintf("%s:%d:%d:%s", cbPrefixPage, userID, page, truncateFragment(fragment))
}

func encodeDeliver(destination, archiveMessageID int64) string {
	return fmt.Sprintf("%s:%d:%d", cbPrefixDeliver, destination, archiveMessageID)
}

func encodeRemove(destination, archiveMessageID int64) string {
	return fmt.Sprintf("%s:%d:%d", cbPrefixRemove, destination, archiveMessageID)
}

func decodeConfirm(data string) (userID int64, fragment string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != cbPrefixConfirm {
		return 0, "", false
	}
	uid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return uid, parts[2], true
}

func decodePage(data string) (userID int64, page int, fragment string, ok bool) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 || parts[0] != cbPrefixPage {
		return 0, 0, "", false
	}
	uid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, "", false
	}
	p, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, "", false
	}
	return uid, p, parts[3], true
}

func decodeMapping(prefix, data string) (destination, archiveMessageID int64, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != prefix {
		return 0, 0, false
	}
	dest, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	msgID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return dest, msgID, true
}
