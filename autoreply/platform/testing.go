package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/replyforge/replyforge/models"
)

type MockCall struct {
	Platform  models.Platform
	ContentID string
	CommentID string
	Text      string
}

// Records reply calls in memory. Set Fail to make every call error (for
// exercising terminal dispatch failures).
type MockAdapter struct {
	mu    sync.Mutex
	Calls []MockCall
	Fail  bool
}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

var _ Adapter = (*MockAdapter)(nil)

func (m *MockAdapter) PostReply(ctx context.Context, platform models.Platform, contentID, commentID, text string) (*PostReplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, fmt.Errorf("mock adapter failure")
	}
	m.Calls = append(m.Calls, MockCall{
		Platform:  platform,
		ContentID: contentID,
		CommentID: commentID,
		Text:      text,
	})
	return &PostReplyResult{
		PlatformResponseID: fmt.Sprintf("mock-%d", len(m.Calls)),
	}, nil
}

func (m *MockAdapter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
