package models

// Chat kinds as reported by the platform.
const (
	ChatKindPrivate    = "private"
	ChatKindGroup      = "group"
	ChatKindSupergroup = "supergroup"
	ChatKindChannel    = "channel"
)

// Group is a chat the bot has seen (group, supergroup or channel).
type Group struct {
	ID int64 `gorm:"primaryKey"`

	Kind  string `gorm:"type:text;not null"`
	Title string `gorm:"type:text"`

	// UTC unix seconds, fixed at first sight.
	FirstSeenAt int64 `gorm:"not null"`

	UpdatedAt int64 `gorm:"autoUpdateTime"`
}

// IsMultiParty reports whether a chat kind hosts more than one participant.
func IsMultiParty(kind string) bool {
	return kind == ChatKindGroup || kind == ChatKindSupergroup
}
