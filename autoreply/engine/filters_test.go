package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/replyforge/replyforge/models"
)

func TestFilterOrderFixed(t *testing.T) {
	assert := assert.New(t)

	rule := &models.Rule{
		SkipSpam:          true,
		OnlyVerifiedUsers: true,
	}
	// spam and unverified: the spam reason wins because order is fixed
	evt := comment("buy followers at sketchy.site")
	evt.Spam = true
	evt.Author.Verified = false

	res := ApplyFilters(rule, evt)
	assert.False(res.Allow)
	assert.Equal(FilterReasonSpam, res.Reason)
}

func TestFilterSpam(t *testing.T) {
	assert := assert.New(t)
	rule := &models.Rule{SkipSpam: true}

	evt := comment("normal comment")
	assert.True(ApplyFilters(rule, evt).Allow)

	evt.Spam = true
	assert.False(ApplyFilters(rule, evt).Allow)

	// filter disabled: spam passes through
	assert.True(ApplyFilters(&models.Rule{}, evt).Allow)
}

func TestFilterNegativeSentiment(t *testing.T) {
	assert := assert.New(t)
	rule := &models.Rule{SkipNegativeSentiment: true}

	evt := comment("this sucks")
	neg := -0.7
	evt.SentimentScore = &neg
	res := ApplyFilters(rule, evt)
	assert.False(res.Allow)
	assert.Equal(FilterReasonNegative, res.Reason)

	// unscored comments are not rejected
	evt.SentimentScore = nil
	assert.True(ApplyFilters(rule, evt).Allow)
}

func TestFilterVerifiedAndFollowers(t *testing.T) {
	assert := assert.New(t)
	minFollowers := int64(1000)
	rule := &models.Rule{
		OnlyVerifiedUsers: true,
		MinFollowerCount:  &minFollowers,
	}

	evt := comment("hello")
	evt.Author.Verified = false
	evt.Author.FollowerCount = 50
	res := ApplyFilters(rule, evt)
	assert.False(res.Allow)
	assert.Equal(FilterReasonNotVerified, res.Reason)

	evt.Author.Verified = true
	res = ApplyFilters(rule, evt)
	assert.False(res.Allow)
	assert.Equal(FilterReasonLowFollowers, res.Reason)

	evt.Author.FollowerCount = 5000
	assert.True(ApplyFilters(rule, evt).Allow)
}
