package store

import (
	"context"
	"time"

	"github.com/ajmalps/trovebot/db/models"
)

// EnqueueDeleteJob records a deferred message deletion due at fireAt
// (UTC unix seconds). The job survives process restarts.
func (s *Store) EnqueueDeleteJob(ctx context.Context, chatID, messageID, fireAt int64) error {
	job := models.DeleteJob{
		ChatID:    chatID,
		MessageID: messageID,
		FireAt:    fireAt,
		Status:    models.DeleteJobQueued,
	}
	return s.db.WithContext(ctx).Create(&job).Error
}

// ClaimDueDeleteJob picks the oldest due queued job and moves it to
// running. The guarded update keeps concurrent sweepers from claiming
// the same job twice.
func (s *Store) ClaimDueDeleteJob(ctx context.Context, now int64) (*models.DeleteJob, bool, error) {
	var j models.DeleteJob
	res := s.db.WithContext(ctx).
		Where("status = ? AND fire_at <= ?", models.DeleteJobQueued, now).
		Order("fire_at asc").
		Limit(1).
		Find(&j)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	res2 := s.db.WithContext(ctx).
		Model(&models.DeleteJob{}).
		Where("id = ? AND status = ?", j.ID, models.DeleteJobQueued).
		Update("status", models.DeleteJobRunning)
	if res2.Error != nil {
		return nil, false, res2.Error
	}
	if res2.RowsAffected == 0 {
		return nil, false, nil
	}
	j.Status = models.DeleteJobRunning
	return &j, true, nil
}

// FinishDeleteJob marks the job done. A non-nil errStr records a
// best-effort failure; the job is still done (platform deletes are not
// retried).
func (s *Store) FinishDeleteJob(ctx context.Context, jobID string, errStr *string) error {
	return s.db.WithContext(ctx).
		Model(&models.DeleteJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status": models.DeleteJobDone,
			"error":  errStr,
		}).Error
}

// RecoverOrphanedDeleteJobs requeues jobs left running by a previous
// process. Called once at sweeper startup.
func (s *Store) RecoverOrphanedDeleteJobs(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.DeleteJob{}).
		Where("status = ?", models.DeleteJobRunning).
		Update("status", models.DeleteJobQueued)
	return res.RowsAffected, res.Error
}

// ArmBroadcast flags the participant so their next text message is taken
// as broadcast content.
func (s *Store) ArmBroadcast(ctx context.Context, participantID int64) error {
	sess := models.BroadcastSession{
		ParticipantID: participantID,
		CreatedAt:     time.Now().UTC().Unix(),
	}
	return s.db.WithContext(ctx).Save(&sess).Error
}

// ConsumeBroadcast deletes the pending-broadcast flag, reporting whether
// one existed.
func (s *Store) ConsumeBroadcast(ctx context.Context, participantID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Delete(&models.BroadcastSession{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
