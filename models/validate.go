package models

import (
	"errors"
	"fmt"
	"time"
)

// Returned (wrapped) for any malformed rule. Invalid rules are rejected at
// create/update time and never persisted.
var ErrInvalidRule = errors.New("invalid rule")

func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	switch r.TriggerType {
	case TriggerKeyword, TriggerSemantic, TriggerSentiment, TriggerQuestion, TriggerMention:
	default:
		return fmt.Errorf("%w: unknown trigger type: %q", ErrInvalidRule, r.TriggerType)
	}
	switch r.MatchMode {
	case MatchExact, MatchContains, MatchStartsWith, MatchRegex, MatchAISimilarity:
	default:
		return fmt.Errorf("%w: unknown match mode: %q", ErrInvalidRule, r.MatchMode)
	}
	switch r.ResponseAction {
	case ActionReplyComment, ActionSendDM, ActionSendLink, ActionLogOnly, ActionWebhook:
	default:
		return fmt.Errorf("%w: unknown response action: %q", ErrInvalidRule, r.ResponseAction)
	}
	if len(r.Platforms) == 0 {
		return fmt.Errorf("%w: at least one platform is required", ErrInvalidRule)
	}
	for _, p := range r.Platforms {
		switch p {
		case PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformX:
		default:
			return fmt.Errorf("%w: unknown platform: %q", ErrInvalidRule, p)
		}
	}
	if r.TriggerType == TriggerKeyword && len(r.Keywords) == 0 {
		return fmt.Errorf("%w: keyword trigger requires at least one keyword", ErrInvalidRule)
	}
	if r.MatchMode == MatchAISimilarity && (r.AISimilarityThreshold <= 0 || r.AISimilarityThreshold > 1) {
		return fmt.Errorf("%w: ai_similarity match requires a threshold in (0, 1]", ErrInvalidRule)
	}
	if r.MaxResponsesPerDay < 0 {
		return fmt.Errorf("%w: maxResponsesPerDay must be >= 0", ErrInvalidRule)
	}
	if r.MinDelaySeconds < 0 || r.MaxDelaySeconds < 0 {
		return fmt.Errorf("%w: delay bounds must be >= 0", ErrInvalidRule)
	}
	if r.MinDelaySeconds > r.MaxDelaySeconds {
		return fmt.Errorf("%w: minDelaySeconds greater than maxDelaySeconds", ErrInvalidRule)
	}
	if r.Timezone != "" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone: %q", ErrInvalidRule, r.Timezone)
		}
	}
	return nil
}
