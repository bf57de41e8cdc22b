package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTP client for the scoring service. Scoring calls are idempotent, so
// transport-level retries are safe here (unlike dispatch, which is never
// retried).
type HTTPClient struct {
	Host     string
	APIToken string
	Client   *http.Client
}

func NewHTTPClient(host, apiToken string) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = 10 * time.Second
	return &HTTPClient{
		Host:     host,
		APIToken: apiToken,
		Client:   rc.StandardClient(),
	}
}

type scoreRequest struct {
	Text      string `json:"text"`
	Reference string `json:"reference,omitempty"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
	Spam  bool    `json:"spam"`
}

func (c *HTTPClient) post(ctx context.Context, path string, req scoreRequest) (*scoreResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}
	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding classifier response: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) SentimentScore(ctx context.Context, text string) (float64, error) {
	out, err := c.post(ctx, "/v1/sentiment", scoreRequest{Text: text})
	if err != nil {
		return 0, err
	}
	return out.Score, nil
}

func (c *HTTPClient) IsSpam(ctx context.Context, text string) (bool, error) {
	out, err := c.post(ctx, "/v1/spam", scoreRequest{Text: text})
	if err != nil {
		return false, err
	}
	return out.Spam, nil
}

func (c *HTTPClient) Similarity(ctx context.Context, text, reference string) (float64, error) {
	out, err := c.post(ctx, "/v1/similarity", scoreRequest{Text: text, Reference: reference})
	if err != nil {
		return 0, err
	}
	return out.Score, nil
}
