package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File kinds recorded in the index.
const (
	FileKindDocument = "document"
	FileKindPhoto    = "photo"
	FileKindVideo    = "video"
	FileKindAudio    = "audio"
	FileKindVoice    = "voice"
)

// FileEntry is one indexed file-bearing message. The origin pair is
// unique so a duplicate webhook delivery cannot produce a second row.
type FileEntry struct {
	ID string `gorm:"primaryKey;type:text"`

	OriginChatID    int64  `gorm:"not null;uniqueIndex:idx_file_entries_origin"`
	OriginMessageID int64  `gorm:"not null;uniqueIndex:idx_file_entries_origin"`
	OriginChatKind  string `gorm:"type:text"`
	ParticipantID   int64  `gorm:"index"`

	Kind         string  `gorm:"type:text;not null"`
	Name         *string `gorm:"type:text;index"`
	MimeType     *string `gorm:"type:text"`
	Size         *int64  `gorm:""`
	Duration     *int64  `gorm:""`
	Caption      *string `gorm:"type:text"`
	FileID       string  `gorm:"type:text"`
	FileUniqueID string  `gorm:"type:text"`

	// Relay mapping; both set together after a successful archive relay.
	ArchiveChatID    *int64 `gorm:"index:idx_file_entries_archive"`
	ArchiveMessageID *int64 `gorm:"index:idx_file_entries_archive"`

	// Soft delete, UTC unix seconds. Set once; retries do not move it.
	DeletedAt *int64 `gorm:""`

	CreatedAt int64 `gorm:"autoCreateTime"`
	UpdatedAt int64 `gorm:"autoUpdateTime"`
}

func (e *FileEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Archived reports whether a relay mapping has been attached.
func (e *FileEntry) Archived() bool {
	return e != nil && e.ArchiveChatID != nil && e.ArchiveMessageID != nil
}

// Deleted reports whether the entry has been soft-deleted.
func (e *FileEntry) Deleted() bool {
	return e != nil && e.DeletedAt != nil
}
