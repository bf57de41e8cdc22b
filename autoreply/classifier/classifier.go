// Package classifier wraps the external scoring service used for sentiment,
// spam, and semantic similarity. The engine treats all scores as opaque:
// when the service is unreachable, classifier-dependent triggers are simply
// non-matches (better to miss a trigger than to mis-fire).
package classifier

import (
	"context"
	"errors"
)

// Sentinel for a scorer that is configured but unreachable.
var ErrUnavailable = errors.New("classifier unavailable")

// Sentiment scores fall in [-1, 1]. Scores at or below this boundary are
// considered negative, both for the sentiment trigger and for the
// skip-negative-sentiment filter.
const NegativeThreshold = -0.25

type Client interface {
	// Sentiment score for a piece of text, in [-1, 1].
	SentimentScore(ctx context.Context, text string) (float64, error)
	IsSpam(ctx context.Context, text string) (bool, error)
	// Semantic similarity between text and a reference phrase, in [0, 1].
	Similarity(ctx context.Context, text, reference string) (float64, error)
}
