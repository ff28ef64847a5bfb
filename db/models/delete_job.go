package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeleteJob statuses.
const (
	DeleteJobQueued  = "queued"
	DeleteJobRunning = "running"
	DeleteJobDone    = "done"
)

// DeleteJob is a durable deferred message deletion. Jobs survive process
// restarts; the sweeper claims and executes them once due.
type DeleteJob struct {
	ID string `gorm:"primaryKey;type:text"`

	ChatID    int64 `gorm:"not null"`
	MessageID int64 `gorm:"not null"`

	// UTC unix seconds at which the deletion becomes due.
	FireAt int64 `gorm:"not null;index"`

	Status string  `gorm:"type:text;not null;default:'queued';index"`
	Error  *string `gorm:"type:text"`

	CreatedAt int64 `gorm:"autoCreateTime"`
	UpdatedAt int64 `gorm:"autoUpdateTime"`
}

func (j *DeleteJob) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
