// Package store is the persistence layer: rule CRUD, activity log reads,
// and the derived stats rollups. All reads are scoped by creator.
package store

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/replyforge/replyforge/models"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("migrating database")
	if err := db.AutoMigrate(&models.Rule{}, &models.ActivityLog{}, &models.RuleQuota{}); err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
