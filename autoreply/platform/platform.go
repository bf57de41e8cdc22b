// Package platform abstracts the per-network comment APIs. The engine only
// ever posts a reply through the Adapter interface; OAuth, token refresh,
// and the concrete platform endpoints live behind it.
package platform

import (
	"context"

	"github.com/replyforge/replyforge/models"
)

type PostReplyResult struct {
	PlatformResponseID string
}

type Adapter interface {
	// Posts rendered text as a reply to the given comment. Timeouts and
	// other failures surface as errors; the caller records them as terminal
	// dispatch failures and never retries.
	PostReply(ctx context.Context, platform models.Platform, contentID, commentID, text string) (*PostReplyResult, error)
}
