package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/models"
)

func TestEngineBasics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "course link",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"course"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformYouTube},
		ResponseAction:     models.ActionSendLink,
		ResponseTemplate:   "Hey {{username}}! Course is here: {{customLink}}",
		CustomLink:         "https://example.com/course",
		MaxResponsesPerDay: 5,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	// matching comment produces exactly one log row
	evt := TestCommentEvent(models.PlatformYouTube, "c1", "please send the COURSE")
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", evt))

	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Equal(int64(1), count)

	var row models.ActivityLog
	require.NoError(f.DB.First(&row).Error)
	assert.Equal(rule.ID, row.RuleID)
	assert.Equal("c1", row.CommentID)
	if assert.NotNil(row.MatchedKeyword) {
		assert.Equal("course", *row.MatchedKeyword)
	}

	// non-matching comment produces nothing
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", TestCommentEvent(models.PlatformYouTube, "c2", "great video!")))
	require.NoError(f.DB.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Equal(int64(1), count)

	// out-of-scope platform is rejected before trigger evaluation
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", TestCommentEvent(models.PlatformTikTok, "c3", "course please")))
	require.NoError(f.DB.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Equal(int64(1), count)
}

func TestIdempotentDispatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "resubmit guard",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"promo"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformX},
		ResponseAction:     models.ActionLogOnly,
		ResponseTemplate:   "seen",
		MaxResponsesPerDay: 100,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	evt := TestCommentEvent(models.PlatformX, "dup1", "promo code?")
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", evt))
	// same comment delivered again (poller overlap)
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", evt))

	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).
		Where("rule_id = ? AND comment_id = ?", rule.ID, "dup1").
		Count(&count).Error)
	assert.Equal(int64(1), count)

	// the duplicate must not have burned a quota slot
	day := rule.DayKey(time.Now())
	n, err := f.Engine.Quotas.GetCount(ctx, rule.ID, day)
	require.NoError(err)
	assert.Equal(1, n)
}

func TestQuotaRace(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "one per day",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"link"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformYouTube},
		ResponseAction:     models.ActionSendLink,
		CustomLink:         "https://x.com/c",
		ResponseTemplate:   "here: {{customLink}}",
		MaxResponsesPerDay: 1,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	// two comments containing "link" arrive concurrently; only one slot exists
	var wg sync.WaitGroup
	for _, id := range []string{"race1", "race2"} {
		wg.Add(1)
		go func(commentID string) {
			defer wg.Done()
			evt := TestCommentEvent(models.PlatformYouTube, commentID, "send the link pls")
			assert.NoError(f.Engine.ProcessComment(ctx, "creator1", evt))
		}(id)
	}
	wg.Wait()

	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Where("rule_id = ?", rule.ID).Count(&count).Error)
	assert.Equal(int64(1), count, "exactly one comment wins the last quota slot")

	assert.Eventually(func() bool {
		var row models.ActivityLog
		if err := f.DB.Where("rule_id = ?", rule.ID).First(&row).Error; err != nil {
			return false
		}
		return row.ResponseSent
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQuotaExhaustionAcrossEvents(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "two per day",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"hi"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformYouTube},
		ResponseAction:     models.ActionLogOnly,
		ResponseTemplate:   "hello",
		MaxResponsesPerDay: 2,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		require.NoError(f.Engine.ProcessComment(ctx, "creator1", TestCommentEvent(models.PlatformYouTube, id, "hi there")))
	}

	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Where("rule_id = ?", rule.ID).Count(&count).Error)
	assert.Equal(int64(2), count)
}

func TestZeroQuotaNeverFires(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "paused via quota",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"hi"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformYouTube},
		ResponseAction:     models.ActionLogOnly,
		ResponseTemplate:   "hello",
		MaxResponsesPerDay: 0,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	require.NoError(f.Engine.ProcessComment(ctx, "creator1", TestCommentEvent(models.PlatformYouTube, "z1", "hi")))

	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Equal(int64(0), count)
}

func TestFilteredCommentLeavesNoTrace(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	rule := &models.Rule{
		CreatorID:          "creator1",
		Name:               "no spam replies",
		IsActive:           true,
		TriggerType:        models.TriggerKeyword,
		Keywords:           []string{"giveaway"},
		MatchMode:          models.MatchContains,
		Platforms:          []models.Platform{models.PlatformYouTube},
		ResponseAction:     models.ActionReplyComment,
		ResponseTemplate:   "hey!",
		MaxResponsesPerDay: 10,
		SkipSpam:           true,
	}
	require.NoError(f.Store.CreateRule(ctx, rule))

	evt := TestCommentEvent(models.PlatformYouTube, "s1", "giveaway giveaway")
	evt.Spam = true
	require.NoError(f.Engine.ProcessComment(ctx, "creator1", evt))

	// filtered comments are invisible: no log row, no quota slot
	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Equal(int64(0), count)

	n, err := f.Engine.Quotas.GetCount(ctx, rule.ID, rule.DayKey(time.Now()))
	require.NoError(err)
	assert.Equal(0, n)
}

func TestMultipleRulesMatchOneComment(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := EngineTestFixture()
	defer f.Close()

	for _, name := range []string{"first", "second"} {
		rule := &models.Rule{
			CreatorID:          "creator1",
			Name:               name,
			IsActive:           true,
			TriggerType:        models.TriggerKeyword,
			Keywords:           []string{"deal"},
			MatchMode:          models.MatchContains,
			Platforms:          []models.Platform{models.PlatformYouTube},
			ResponseAction:     models.ActionLogOnly,
			ResponseTemplate:   "ok",
			MaxResponsesPerDay: 5,
		}
		require.NoError(f.Store.CreateRule(ctx, rule))
	}

	require.NoError(f.Engine.ProcessComment(ctx, "creator1", TestCommentEvent(models.PlatformYouTube, "m1", "any deal today?")))

	// each matching rule gets its own reservation and row
	var count int64
	require.NoError(f.DB.Model(&models.ActivityLog{}).Where("comment_id = ?", "m1").Count(&count).Error)
	assert.Equal(int64(2), count)
}
