package models

// BannedWord is a moderation filter term. Words are stored lowercase.
type BannedWord struct {
	Word string `gorm:"primaryKey;type:text"`

	CreatedAt int64 `gorm:"autoCreateTime"`
}
