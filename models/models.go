package models

import (
	"time"
)

type Platform string

const (
	PlatformYouTube   = Platform("youtube")
	PlatformInstagram = Platform("instagram")
	PlatformTikTok    = Platform("tiktok")
	PlatformX         = Platform("x")
)

type TriggerType string

const (
	TriggerKeyword   = TriggerType("keyword")
	TriggerSemantic  = TriggerType("semantic")
	TriggerSentiment = TriggerType("sentiment")
	TriggerQuestion  = TriggerType("question")
	TriggerMention   = TriggerType("mention")
)

type MatchMode string

const (
	MatchExact        = MatchMode("exact")
	MatchContains     = MatchMode("contains")
	MatchStartsWith   = MatchMode("starts_with")
	MatchRegex        = MatchMode("regex")
	MatchAISimilarity = MatchMode("ai_similarity")
)

type ResponseAction string

const (
	ActionReplyComment = ResponseAction("reply_comment")
	ActionSendDM       = ResponseAction("send_dm")
	ActionSendLink     = ResponseAction("send_link")
	ActionLogOnly      = ResponseAction("log_only")
	ActionWebhook      = ResponseAction("webhook")
)

// A creator's automation policy: when a comment matches the trigger and
// passes the safety filters, the configured response action fires, at most
// MaxResponsesPerDay times per creator-local calendar day.
type Rule struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CreatorID string `gorm:"index"`
	Name      string
	IsActive  bool

	// IANA timezone name used for the daily quota boundary. Empty means UTC.
	Timezone string

	TriggerType           TriggerType
	Keywords              []string `gorm:"serializer:json"`
	MatchMode             MatchMode
	CaseSensitive         bool
	AISimilarityThreshold float64

	Platforms []Platform `gorm:"serializer:json"`
	// Optional allow-list of content items; empty means the rule applies to
	// all content on the selected platforms.
	VideoIDs []string `gorm:"serializer:json"`

	ResponseAction   ResponseAction
	ResponseTemplate string
	CustomLink       string
	AttachmentURL    string

	MaxResponsesPerDay int
	MinDelaySeconds    int
	MaxDelaySeconds    int

	SkipNegativeSentiment bool
	SkipSpam              bool
	OnlyVerifiedUsers     bool
	MinFollowerCount      *int64
}

// Checks platform and content scoping. Runs before trigger evaluation, so
// out-of-scope events are rejected cheaply.
func (r *Rule) AppliesTo(platform Platform, contentID string) bool {
	found := false
	for _, p := range r.Platforms {
		if p == platform {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(r.VideoIDs) == 0 {
		return true
	}
	for _, vid := range r.VideoIDs {
		if vid == contentID {
			return true
		}
	}
	return false
}

// Location for the rule's daily quota boundary. Unknown or empty timezone
// names fall back to UTC rather than failing the event.
func (r *Rule) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// The quota day bucket for a given instant, in the rule's local calendar.
func (r *Rule) DayKey(t time.Time) string {
	return t.In(r.Location()).Format(time.DateOnly)
}

// One row per (rule, comment) evaluation that reached a dispatch attempt.
// Rows are never deleted, and retain RuleID even after the rule itself is
// removed. The unique (rule_id, comment_id) index is the dispatch
// idempotency key.
type ActivityLog struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	CreatorID string `gorm:"index"`
	RuleID    uint   `gorm:"index:idx_activity_rule_comment,unique"`
	CommentID string `gorm:"index:idx_activity_rule_comment,unique"`

	Platform      Platform
	VideoID       string
	CommentText   string
	CommentAuthor string

	MatchedKeyword    *string
	AIConfidenceScore *float64
	SentimentScore    *float64

	ResponseAction ResponseAction
	ResponseSent   bool
	ResponseText   *string
	ErrorMessage   *string

	TriggeredAt time.Time
	RespondedAt *time.Time
}

// Per-(rule, day) reservation counter backing the gorm quota store. The
// counter only ever moves via an atomic conditional UPDATE.
type RuleQuota struct {
	RuleID uint   `gorm:"primaryKey;autoIncrement:false"`
	Day    string `gorm:"primaryKey"`
	Count  int
}
