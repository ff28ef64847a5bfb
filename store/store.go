package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajmalps/trovebot/db/models"
)

// ErrUnavailable wraps storage failures at call sites that treat the
// store as optional (participant/group upserts).
var ErrUnavailable = errors.New("metadata store unavailable")

// Store is the single owner of all persisted records. Components read
// and write through it and never cache authoritative copies.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

func New(gdb *gorm.DB, log *slog.Logger) (*Store, error) {
	if gdb == nil {
		return nil, fmt.Errorf("nil db")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: gdb, log: log}, nil
}

type ParticipantAttrs struct {
	DisplayName string
	Handle      *string
}

// UpsertParticipant inserts the participant on first sight and refreshes
// display attributes on every later call. FirstSeenAt is first-write-wins.
func (s *Store) UpsertParticipant(ctx context.Context, id int64, attrs ParticipantAttrs) error {
	p := models.Participant{
		ID:          id,
		DisplayName: strings.TrimSpace(attrs.DisplayName),
		Handle:      attrs.Handle,
		FirstSeenAt: time.Now().UTC().Unix(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "handle", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type GroupAttrs struct {
	Kind  string
	Title string
}

// UpsertGroup is symmetric to UpsertParticipant.
func (s *Store) UpsertGroup(ctx context.Context, id int64, attrs GroupAttrs) error {
	g := models.Group{
		ID:          id,
		Kind:        strings.TrimSpace(attrs.Kind),
		Title:       strings.TrimSpace(attrs.Title),
		FirstSeenAt: time.Now().UTC().Unix(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "title", "updated_at"}),
	}).Create(&g).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InsertFileEntry records a file-bearing message. A duplicate webhook
// delivery of the same (origin chat, origin message) pair leaves the
// first row in place; the existing entry id is returned in that case.
func (s *Store) InsertFileEntry(ctx context.Context, entry *models.FileEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("nil entry")
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_chat_id"}, {Name: "origin_message_id"}},
		DoNothing: true,
	}).Create(entry)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected > 0 {
		return entry.ID, nil
	}

	var existing models.FileEntry
	err := s.db.WithContext(ctx).
		Where("origin_chat_id = ? AND origin_message_id = ?", entry.OriginChatID, entry.OriginMessageID).
		First(&existing).Error
	if err != nil {
		return "", err
	}
	return existing.ID, nil
}

// AttachRelayMapping records where the archived copy lives. Setting the
// same mapping twice is a no-op; a different mapping overwrites.
func (s *Store) AttachRelayMapping(ctx context.Context, entryID string, archiveChatID, archiveMessageID int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"archive_chat_id":    archiveChatID,
			"archive_message_id": archiveMessageID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no such entry: %s", entryID)
	}
	return nil
}

// FindByNameFragment matches the fragment case-insensitively against the
// recorded file name. Entries without a name never match; soft-deleted
// entries are excluded. Results are newest first, bounded by limit.
func (s *Store) FindByNameFragment(ctx context.Context, fragment string, limit int) ([]models.FileEntry, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"

	var out []models.FileEntry
	err := s.db.WithContext(ctx).
		Where("name IS NOT NULL AND deleted_at IS NULL").
		Where("lower(name) LIKE ? ESCAPE '\\'", pattern).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByRelayMapping reverse-maps an archived copy to its index entry.
// Soft-deleted entries are still returned so callers can observe the
// deleted flag.
func (s *Store) FindByRelayMapping(ctx context.Context, archiveChatID, archiveMessageID int64) (*models.FileEntry, bool, error) {
	var e models.FileEntry
	res := s.db.WithContext(ctx).
		Where("archive_chat_id = ? AND archive_message_id = ?", archiveChatID, archiveMessageID).
		Limit(1).
		Find(&e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	return &e, true, nil
}

// MarkDeleted soft-deletes the entry. The deletion timestamp is set only
// once; calling again does not move it.
func (s *Store) MarkDeleted(ctx context.Context, entryID string) error {
	now := time.Now().UTC().Unix()
	return s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("id = ? AND deleted_at IS NULL", entryID).
		Update("deleted_at", now).Error
}

func (s *Store) CountParticipants(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Participant{}).Count(&n).Error
	return n, err
}

func (s *Store) CountGroups(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Group{}).Count(&n).Error
	return n, err
}

// CountFileEntries counts every recorded entry, archived or not.
func (s *Store) CountFileEntries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.FileEntry{}).Count(&n).Error
	return n, err
}

// ListParticipantIDs returns every known participant id, for broadcast.
func (s *Store) ListParticipantIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.Participant{}).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
