package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() *Rule {
	return &Rule{
		Name:               "test rule",
		TriggerType:        TriggerKeyword,
		Keywords:           []string{"hello"},
		MatchMode:          MatchContains,
		Platforms:          []Platform{PlatformYouTube},
		ResponseAction:     ActionReplyComment,
		MaxResponsesPerDay: 5,
	}
}

func TestRuleValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(validRule().Validate())

	r := validRule()
	r.Name = ""
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.TriggerType = "vibes"
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.MatchMode = "fuzzy"
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.ResponseAction = "carrier_pigeon"
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.Platforms = nil
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.Platforms = []Platform{"friendster"}
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.Keywords = nil
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	// non-keyword triggers don't need keywords
	r = validRule()
	r.TriggerType = TriggerQuestion
	r.Keywords = nil
	assert.NoError(r.Validate())

	r = validRule()
	r.MatchMode = MatchAISimilarity
	r.AISimilarityThreshold = 0
	assert.ErrorIs(r.Validate(), ErrInvalidRule)
	r.AISimilarityThreshold = 1.5
	assert.ErrorIs(r.Validate(), ErrInvalidRule)
	r.AISimilarityThreshold = 0.8
	assert.NoError(r.Validate())

	r = validRule()
	r.MaxResponsesPerDay = -1
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.MinDelaySeconds = 60
	r.MaxDelaySeconds = 30
	assert.ErrorIs(r.Validate(), ErrInvalidRule)

	r = validRule()
	r.Timezone = "Mars/Olympus_Mons"
	assert.ErrorIs(r.Validate(), ErrInvalidRule)
	r.Timezone = "America/New_York"
	assert.NoError(r.Validate())
}

func TestRuleAppliesTo(t *testing.T) {
	assert := assert.New(t)

	r := &Rule{Platforms: []Platform{PlatformYouTube, PlatformTikTok}}
	assert.True(r.AppliesTo(PlatformYouTube, "vid1"))
	assert.True(r.AppliesTo(PlatformTikTok, "vid1"))
	assert.False(r.AppliesTo(PlatformInstagram, "vid1"))

	// video allow-list restricts within the platform scope
	r.VideoIDs = []string{"vid1", "vid2"}
	assert.True(r.AppliesTo(PlatformYouTube, "vid1"))
	assert.False(r.AppliesTo(PlatformYouTube, "vid3"))
}

func TestRuleDayKey(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// 2024-06-01 03:30 UTC is still 2024-05-31 in New York
	instant := time.Date(2024, 6, 1, 3, 30, 0, 0, time.UTC)

	r := &Rule{}
	assert.Equal("2024-06-01", r.DayKey(instant))

	r.Timezone = "America/New_York"
	assert.Equal("2024-05-31", r.DayKey(instant))

	// unknown timezone falls back to UTC instead of failing
	r.Timezone = "Not/AZone"
	assert.Equal("2024-06-01", r.DayKey(instant))

	loc := (&Rule{Timezone: "America/New_York"}).Location()
	require.NotNil(loc)
	assert.Equal("America/New_York", loc.String())
}
