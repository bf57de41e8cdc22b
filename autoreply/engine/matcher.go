package engine

import (
	"context"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/replyforge/replyforge/autoreply/classifier"
	"github.com/replyforge/replyforge/models"
)

type MatchResult struct {
	Matched        bool
	MatchedKeyword string
	// similarity score for AI-backed matches, nil otherwise
	Confidence *float64
}

// Evaluates a single rule's trigger against one comment. Stateless except
// for the compiled-regex cache, so safe for concurrent use.
type Matcher struct {
	Classifier classifier.Client

	regexCache *lru.Cache[string, *regexp.Regexp]
}

const regexCacheSize = 512

func NewMatcher(cls classifier.Client) *Matcher {
	cache, _ := lru.New[string, *regexp.Regexp](regexCacheSize)
	return &Matcher{
		Classifier: cls,
		regexCache: cache,
	}
}

var questionWordRegex = regexp.MustCompile(`(?i)^\s*(who|what|when|where|why|how)\b`)
var mentionRegex = regexp.MustCompile(`@[a-zA-Z0-9_.]+`)

// Trigger evaluation. Classifier errors never propagate: semantic and
// sentiment triggers degrade to non-matches when the scorer is unreachable,
// while keyword/question/mention triggers don't need it at all.
func (m *Matcher) Match(ctx context.Context, rule *models.Rule, evt *CommentEvent) MatchResult {
	switch rule.TriggerType {
	case models.TriggerKeyword:
		return m.matchKeywords(ctx, rule, evt.Text)
	case models.TriggerSemantic:
		return m.matchSemantic(ctx, rule, evt.Text)
	case models.TriggerSentiment:
		return m.matchSentiment(ctx, rule, evt)
	case models.TriggerQuestion:
		if strings.Contains(evt.Text, "?") || questionWordRegex.MatchString(evt.Text) {
			return MatchResult{Matched: true}
		}
		return MatchResult{}
	case models.TriggerMention:
		if tok := mentionRegex.FindString(evt.Text); tok != "" {
			return MatchResult{Matched: true, MatchedKeyword: tok}
		}
		return MatchResult{}
	default:
		return MatchResult{}
	}
}

// First keyword that matches wins; iteration follows the stored keyword
// order so results are stable.
func (m *Matcher) matchKeywords(ctx context.Context, rule *models.Rule, text string) MatchResult {
	haystack := text
	for _, kw := range rule.Keywords {
		needle := kw
		if !rule.CaseSensitive && rule.MatchMode != models.MatchRegex {
			haystack = strings.ToLower(text)
			needle = strings.ToLower(kw)
		}
		switch rule.MatchMode {
		case models.MatchExact:
			if strings.TrimSpace(haystack) == needle {
				return MatchResult{Matched: true, MatchedKeyword: kw}
			}
		case models.MatchContains:
			if strings.Contains(haystack, needle) {
				return MatchResult{Matched: true, MatchedKeyword: kw}
			}
		case models.MatchStartsWith:
			if strings.HasPrefix(strings.TrimSpace(haystack), needle) {
				return MatchResult{Matched: true, MatchedKeyword: kw}
			}
		case models.MatchRegex:
			re := m.compileRegex(kw, rule.CaseSensitive)
			if re != nil && re.MatchString(text) {
				return MatchResult{Matched: true, MatchedKeyword: kw}
			}
			// invalid pattern: treated as a non-match, never an error
		case models.MatchAISimilarity:
			if score, ok := m.similarity(ctx, text, kw); ok && score >= rule.AISimilarityThreshold {
				return MatchResult{Matched: true, MatchedKeyword: kw, Confidence: &score}
			}
		}
	}
	return MatchResult{}
}

// Threshold used for semantic triggers when the rule doesn't carry an
// explicit ai_similarity threshold.
const defaultSemanticThreshold = 0.75

func (m *Matcher) matchSemantic(ctx context.Context, rule *models.Rule, text string) MatchResult {
	threshold := rule.AISimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSemanticThreshold
	}
	for _, kw := range rule.Keywords {
		if score, ok := m.similarity(ctx, text, kw); ok && score >= threshold {
			return MatchResult{Matched: true, MatchedKeyword: kw, Confidence: &score}
		}
	}
	return MatchResult{}
}

func (m *Matcher) matchSentiment(ctx context.Context, rule *models.Rule, evt *CommentEvent) MatchResult {
	score := evt.SentimentScore
	if score == nil {
		if m.Classifier == nil {
			return MatchResult{}
		}
		s, err := m.Classifier.SentimentScore(ctx, evt.Text)
		if err != nil {
			classifierErrorCount.WithLabelValues("sentiment").Inc()
			return MatchResult{}
		}
		score = &s
	}
	if *score <= classifier.NegativeThreshold {
		return MatchResult{Matched: true, Confidence: score}
	}
	return MatchResult{}
}

func (m *Matcher) similarity(ctx context.Context, text, reference string) (float64, bool) {
	if m.Classifier == nil {
		return 0, false
	}
	score, err := m.Classifier.Similarity(ctx, text, reference)
	if err != nil {
		classifierErrorCount.WithLabelValues("similarity").Inc()
		return 0, false
	}
	return score, true
}

func (m *Matcher) compileRegex(pattern string, caseSensitive bool) *regexp.Regexp {
	key := pattern
	if !caseSensitive {
		key = "(?i)" + pattern
	}
	if re, ok := m.regexCache.Get(key); ok {
		return re
	}
	re, err := regexp.Compile(key)
	if err != nil {
		// cache the failure as a nil entry so hot rules with a bad pattern
		// don't recompile on every comment
		m.regexCache.Add(key, nil)
		return nil
	}
	m.regexCache.Add(key, re)
	return re
}
