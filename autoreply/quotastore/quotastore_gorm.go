package quotastore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/replyforge/replyforge/models"
)

// Database-backed quota store. The reservation is a single conditional
// UPDATE (count = count + 1 WHERE count < limit), so concurrent events on
// the same rule serialize at the row level. When bound to a transaction via
// WithTx, the increment commits or rolls back together with the activity
// log insert.
type GormQuotaStore struct {
	db *gorm.DB
}

func NewGormQuotaStore(db *gorm.DB) *GormQuotaStore {
	return &GormQuotaStore{db: db}
}

var _ TxBinder = (*GormQuotaStore)(nil)

func (s *GormQuotaStore) WithTx(tx *gorm.DB) QuotaStore {
	return &GormQuotaStore{db: tx}
}

func (s *GormQuotaStore) Reserve(ctx context.Context, ruleID uint, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	db := s.db.WithContext(ctx)

	// make sure the counter row exists before the conditional increment
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RuleQuota{RuleID: ruleID, Day: day, Count: 0}).Error
	if err != nil {
		return false, err
	}

	res := db.Model(&models.RuleQuota{}).
		Where("rule_id = ? AND day = ? AND count < ?", ruleID, day, limit).
		Update("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormQuotaStore) Release(ctx context.Context, ruleID uint, day string) error {
	return s.db.WithContext(ctx).Model(&models.RuleQuota{}).
		Where("rule_id = ? AND day = ? AND count > 0", ruleID, day).
		Update("count", gorm.Expr("count - 1")).Error
}

func (s *GormQuotaStore) GetCount(ctx context.Context, ruleID uint, day string) (int, error) {
	var q models.RuleQuota
	err := s.db.WithContext(ctx).
		Where("rule_id = ? AND day = ?", ruleID, day).
		First(&q).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return q.Count, nil
}
