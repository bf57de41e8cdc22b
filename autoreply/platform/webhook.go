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

// Payload POSTed to the operator-configured webhook URL for rules with the
// webhook response action. No signing; the receiving end is expected to be
// operator-controlled infrastructure.
type WebhookPayload struct {
	RuleID         uint            `json:"ruleId"`
	CommentID      string          `json:"commentId"`
	Platform       models.Platform `json:"platform"`
	RenderedText   string          `json:"renderedText"`
	MatchedKeyword string          `json:"matchedKeyword,omitempty"`
}

type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL: url,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, payload WebhookPayload) error {
	if n.URL == "" {
		return fmt.Errorf("webhook URL not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
