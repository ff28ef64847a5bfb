package models

// BroadcastSession marks a participant with a pending broadcast. The next
// text message from that participant consumes (deletes) the row.
type BroadcastSession struct {
	ParticipantID int64 `gorm:"primaryKey"`

	CreatedAt int64 `gorm:"autoCreateTime"`
}
