package store

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/ajmalps/trovebot/db/models"
)

// AddBannedWord stores a moderation term. Words are normalized to
// lowercase; adding an existing word is a no-op.
func (s *Store) AddBannedWord(ctx context.Context, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BannedWord{Word: word}).Error
}

// RemoveBannedWord deletes a moderation term, reporting whether it existed.
func (s *Store) RemoveBannedWord(ctx context.Context, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	res := s.db.WithContext(ctx).
		Where("word = ?", word).
		Delete(&models.BannedWord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListBannedWords returns all moderation terms, alphabetically.
func (s *Store) ListBannedWords(ctx context.Context) ([]string, error) {
	var words []string
	err := s.db.WithContext(ctx).
		Model(&models.BannedWord{}).
		Order("word asc").
		Pluck("word", &words).Error
	return words, err
}
