package store

import (
	"context"
	"sort"
	"time"

	"github.com/replyforge/replyforge/models"
)

type RuleStat struct {
	RuleID uint   `json:"ruleId"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

// Derived from the activity log on demand; nothing here is stored.
type Stats struct {
	TotalTriggers       int64                     `json:"totalTriggers"`
	SuccessfulResponses int64                     `json:"successfulResponses"`
	ResponseRate        float64                   `json:"responseRate"`
	TopPerformingRules  []RuleStat                `json:"topPerformingRules"`
	PlatformStats       map[models.Platform]int64 `json:"platformStats"`
	TodayTotalResponses int64                     `json:"todayTotalResponses"`
}

const topRuleCount = 5

// Scans the creator's log rows and computes the rollups. "Today" is the
// current calendar day in loc (the creator's timezone, or UTC).
func (s *Store) Stats(ctx context.Context, creatorID string, loc *time.Location) (*Stats, error) {
	if loc == nil {
		loc = time.UTC
	}
	db := s.db.WithContext(ctx)
	out := &Stats{
		TopPerformingRules: []RuleStat{},
		PlatformStats:      make(map[models.Platform]int64),
	}

	if err := db.Model(&models.ActivityLog{}).
		Where("creator_id = ?", creatorID).
		Count(&out.TotalTriggers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ActivityLog{}).
		Where("creator_id = ? AND response_sent = ?", creatorID, true).
		Count(&out.SuccessfulResponses).Error; err != nil {
		return nil, err
	}
	// zero, not NaN, when nothing has triggered yet
	if out.TotalTriggers > 0 {
		out.ResponseRate = float64(out.SuccessfulResponses) / float64(out.TotalTriggers)
	}

	var platformRows []struct {
		Platform models.Platform
		Count    int64
	}
	if err := db.Model(&models.ActivityLog{}).
		Select("platform, count(*) as count").
		Where("creator_id = ?", creatorID).
		Group("platform").
		Scan(&platformRows).Error; err != nil {
		return nil, err
	}
	for _, row := range platformRows {
		out.PlatformStats[row.Platform] = row.Count
	}

	top, err := s.topRules(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	out.TopPerformingRules = top

	startOfDay := time.Now().In(loc)
	startOfDay = time.Date(startOfDay.Year(), startOfDay.Month(), startOfDay.Day(), 0, 0, 0, 0, loc)
	if err := db.Model(&models.ActivityLog{}).
		Where("creator_id = ? AND response_sent = ? AND responded_at >= ?", creatorID, true, startOfDay).
		Count(&out.TodayTotalResponses).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Rules ranked by log row count descending. Ties break on rule creation
// order (earliest first) so the ranking is deterministic; rules deleted
// since their logs were written rank by id and keep an empty name.
func (s *Store) topRules(ctx context.Context, creatorID string) ([]RuleStat, error) {
	var countRows []struct {
		RuleID uint
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("rule_id, count(*) as count").
		Where("creator_id = ?", creatorID).
		Group("rule_id").
		Scan(&countRows).Error; err != nil {
		return nil, err
	}

	rules, err := s.ListRules(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(rules))
	createdOrder := make(map[uint]int, len(rules))
	for i, r := range rules {
		names[r.ID] = r.Name
		createdOrder[r.ID] = i
	}

	stats := make([]RuleStat, 0, len(countRows))
	for _, row := range countRows {
		stats = append(stats, RuleStat{
			RuleID: row.RuleID,
			Name:   names[row.RuleID],
			Count:  row.Count,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		oi, iok := createdOrder[stats[i].RuleID]
		oj, jok := createdOrder[stats[j].RuleID]
		if iok && jok {
			return oi < oj
		}
		return stats[i].RuleID < stats[j].RuleID
	})
	if len(stats) > topRuleCount {
		stats = stats[:topRuleCount]
	}
	return stats, nil
}
