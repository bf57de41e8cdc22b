package classifier

import (
	"context"
	"strings"
)

// Canned classifier for tests. Similarity lookups are keyed by
// "text|reference".
type MockClient struct {
	Sentiments   map[string]float64
	SpamTexts    map[string]bool
	Similarities map[string]float64
	// when set, every call fails with this error
	Err error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Sentiments:   make(map[string]float64),
		SpamTexts:    make(map[string]bool),
		Similarities: make(map[string]float64),
	}
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) SentimentScore(ctx context.Context, text string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Sentiments[text], nil
}

func (m *MockClient) IsSpam(ctx context.Context, text string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.SpamTexts[text], nil
}

func (m *MockClient) Similarity(ctx context.Context, text, reference string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	v, ok := m.Similarities[text+"|"+reference]
	if !ok {
		return 0, nil
	}
	return v, nil
}

func SimilarityKey(text, reference string) string {
	return strings.Join([]string{text, reference}, "|")
}
