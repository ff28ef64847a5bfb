package models

// Participant is a user observed on the platform. The row is created on
// the first event from that user id; FirstSeenAt never changes after that.
type Participant struct {
	ID int64 `gorm:"primaryKey"`

	DisplayName string  `gorm:"type:text"`
	Handle      *string `gorm:"type:text"`

	// UTC unix seconds, fixed at first sight.
	FirstSeenAt int64 `gorm:"not null"`

	UpdatedAt int64 `gorm:"autoUpdateTime"`
}
