package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/replyforge/replyforge/models"
)

// Adapter backed by the platform gateway sidecar, which holds the OAuth
// tokens and fans out to the concrete network APIs. No transport retries:
// a reply POST is not idempotent.
type HTTPAdapter struct {
	Host   string
	Client *http.Client
}

func NewHTTPAdapter(host string) *HTTPAdapter {
	return &HTTPAdapter{
		Host: host,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type postReplyRequest struct {
	Platform  models.Platform `json:"platform"`
	ContentID string          `json:"contentId"`
	CommentID string          `json:"commentId"`
	Text      string          `json:"text"`
}

type postReplyResponse struct {
	Success            bool   `json:"success"`
	PlatformResponseID string `json:"platformResponseId,omitempty"`
	Error              string `json:"error,omitempty"`
}

func (a *HTTPAdapter) PostReply(ctx context.Context, platform models.Platform, contentID, commentID, text string) (*PostReplyResult, error) {
	body, err := json.Marshal(postReplyRequest{
		Platform:  platform,
		ContentID: contentID,
		CommentID: commentID,
		Text:      text,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Host+"/reply", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform reply failed: %w", err)
	}
	defer resp.Body.Close()
	var out postReplyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding platform response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		if out.Error != "" {
			return nil, fmt.Errorf("platform reply rejected: %s", out.Error)
		}
		return nil, fmt.Errorf("platform reply rejected: status=%d", resp.StatusCode)
	}
	return &PostReplyResult{PlatformResponseID: out.PlatformResponseID}, nil
}
