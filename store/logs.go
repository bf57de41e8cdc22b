package store

import (
	"context"
	"errors"

	"github.com/replyforge/replyforge/models"
)

var ErrNotFound = errors.New("not found")

const (
	defaultLogPageSize = 25
	maxLogPageSize     = 100
)

// Most-recent-first page of the creator's activity feed. beforeID is the
// cursor: zero means "from the top", otherwise only rows older than that id
// are returned.
func (s *Store) ListLogs(ctx context.Context, creatorID string, beforeID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultLogPageSize
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}
	q := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("id desc").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var logs []models.ActivityLog
	err := q.Find(&logs).Error
	return logs, err
}
