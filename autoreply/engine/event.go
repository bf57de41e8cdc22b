package engine

import (
	"time"

	"github.com/replyforge/replyforge/models"
)

type CommentAuthor struct {
	Name          string `json:"name"`
	Verified      bool   `json:"verified"`
	FollowerCount int64  `json:"followerCount"`
}

// One inbound comment, as delivered by the platform poller or webhook
// receiver. Not persisted by the engine; only the fields copied onto an
// activity log row survive.
type CommentEvent struct {
	Platform  models.Platform `json:"platform"`
	ContentID string          `json:"contentId"`
	CommentID string          `json:"commentId"`
	// Title of the video/post the comment was left on, used for the
	// {{videoTitle}} template variable.
	VideoTitle string        `json:"videoTitle,omitempty"`
	Author     CommentAuthor `json:"author"`
	Text       string        `json:"text"`
	Timestamp  time.Time     `json:"timestamp"`

	// Precomputed by the upstream classifier where available. Nil sentiment
	// means "unscored".
	SentimentScore *float64 `json:"sentimentScore,omitempty"`
	Spam           bool     `json:"spam,omitempty"`
}
