package store

import (
	"context"

	"github.com/replyforge/replyforge/models"
)

func (s *Store) CreateRule(ctx context.Context, rule *models.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(rule).Error
}

func (s *Store) GetRule(ctx context.Context, creatorID string, id uint) (*models.Rule, error) {
	var rule models.Rule
	err := s.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Rules in creation order (oldest first), which is also the order they are
// evaluated against comments.
func (s *Store) ListRules(ctx context.Context, creatorID string) ([]models.Rule, error) {
	var rules []models.Rule
	err := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at asc, id asc").
		Find(&rules).Error
	return rules, err
}

func (s *Store) ActiveRules(ctx context.Context, creatorID string) ([]models.Rule, error) {
	var rules []models.Rule
	err := s.db.WithContext(ctx).
		Where("creator_id = ? AND is_active = ?", creatorID, true).
		Order("created_at asc, id asc").
		Find(&rules).Error
	return rules, err
}

func (s *Store) UpdateRule(ctx context.Context, rule *models.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	var existing models.Rule
	if err := s.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", rule.ID, rule.CreatorID).
		First(&existing).Error; err != nil {
		return err
	}
	rule.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(rule).Error
}

// Flips the active bit without touching the rest of the rule. Returns the
// new state.
func (s *Store) ToggleRule(ctx context.Context, creatorID string, id uint) (bool, error) {
	rule, err := s.GetRule(ctx, creatorID, id)
	if err != nil {
		return false, err
	}
	rule.IsActive = !rule.IsActive
	if err := s.db.WithContext(ctx).Model(rule).Update("is_active", rule.IsActive).Error; err != nil {
		return false, err
	}
	return rule.IsActive, nil
}

// Removes the rule itself. Activity log rows keep their ruleId reference;
// logs are immutable history and never cascade.
func (s *Store) DeleteRule(ctx context.Context, creatorID string, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Delete(&models.Rule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
