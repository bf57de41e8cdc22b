package engine

import (
	"github.com/replyforge/replyforge/autoreply/classifier"
	"github.com/replyforge/replyforge/models"
)

type FilterResult struct {
	Allow bool
	// first failing filter; reported in telemetry only, never in the
	// activity log
	Reason string
}

const (
	FilterReasonSpam         = "spam"
	FilterReasonNegative     = "negative_sentiment"
	FilterReasonNotVerified  = "not_verified"
	FilterReasonLowFollowers = "low_followers"
)

// Safety filters run in a fixed order: spam, negative sentiment, verified
// author, follower count. The first failure short-circuits, so a comment
// that is both spam and unverified is always rejected for the spam reason.
func ApplyFilters(rule *models.Rule, evt *CommentEvent) FilterResult {
	if rule.SkipSpam && evt.Spam {
		return FilterResult{Reason: FilterReasonSpam}
	}
	if rule.SkipNegativeSentiment && evt.SentimentScore != nil && *evt.SentimentScore <= classifier.NegativeThreshold {
		return FilterResult{Reason: FilterReasonNegative}
	}
	if rule.OnlyVerifiedUsers && !evt.Author.Verified {
		return FilterResult{Reason: FilterReasonNotVerified}
	}
	if rule.MinFollowerCount != nil && evt.Author.FollowerCount < *rule.MinFollowerCount {
		return FilterResult{Reason: FilterReasonLowFollowers}
	}
	return FilterResult{Allow: true}
}
