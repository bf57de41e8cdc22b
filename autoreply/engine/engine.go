package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/replyforge/replyforge/autoreply/quotastore"
	"github.com/replyforge/replyforge/models"
)

var tracer = otel.Tracer("autoreply")

// Supplies the candidate rule set for a creator, ordered by creation time
// (oldest first). Rule evaluation order follows creation order; that is the
// chosen behavior, not an accident of storage.
type RuleSource interface {
	ActiveRules(ctx context.Context, creatorID string) ([]models.Rule, error)
}

// Runtime for evaluating inbound comment events against a creator's rules
// and scheduling the resulting responses.
//
// Each comment event is processed independently; the quota store's Reserve
// is the only serialization point between concurrent events on the same
// rule.
type Engine struct {
	Logger     *slog.Logger
	DB         *gorm.DB
	Rules      RuleSource
	Quotas     quotastore.QuotaStore
	Matcher    *Matcher
	Dispatcher *Dispatcher
}

var errQuotaExceeded = errors.New("daily quota exceeded")

// Evaluates one comment event against every active rule for the creator.
// All matching rules dispatch (each with its own reservation and log row);
// filter and quota skips are silent.
func (eng *Engine) ProcessComment(ctx context.Context, creatorID string, evt *CommentEvent) error {
	// similar to an HTTP server, recover any panics from rule evaluation
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("comment processing exception", "err", r, "platform", evt.Platform, "commentID", evt.CommentID)
		}
	}()
	ctx, span := tracer.Start(ctx, "ProcessComment")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", string(evt.Platform)),
		attribute.String("commentID", evt.CommentID),
	)

	start := time.Now()
	defer func() {
		commentProcessDuration.WithLabelValues(string(evt.Platform)).Observe(time.Since(start).Seconds())
		commentProcessCount.WithLabelValues(string(evt.Platform)).Inc()
	}()

	rules, err := eng.Rules.ActiveRules(ctx, creatorID)
	if err != nil {
		return err
	}

	logger := eng.Logger.With("creatorID", creatorID, "platform", evt.Platform, "commentID", evt.CommentID)

	var errs []error
	for i := range rules {
		rule := &rules[i]
		if !rule.AppliesTo(evt.Platform, evt.ContentID) {
			continue
		}
		res := eng.Matcher.Match(ctx, rule, evt)
		if !res.Matched {
			continue
		}
		ruleMatchCount.WithLabelValues(string(rule.TriggerType)).Inc()

		if fr := ApplyFilters(rule, evt); !fr.Allow {
			filterRejectCount.WithLabelValues(fr.Reason).Inc()
			logger.Debug("comment rejected by filter", "ruleID", rule.ID, "reason", fr.Reason)
			continue
		}

		job, err := eng.reserveAndLog(ctx, rule, evt, res)
		if err != nil {
			logger.Error("dispatch reservation failed", "ruleID", rule.ID, "err", err)
			errs = append(errs, err)
			continue
		}
		if job == nil {
			// quota exhausted or duplicate comment; skip without a log row
			continue
		}
		logger.Info("rule matched, dispatch scheduled", "ruleID", rule.ID, "action", rule.ResponseAction, "matchedKeyword", res.MatchedKeyword)
		eng.Dispatcher.Schedule(job)
	}
	return errors.Join(errs...)
}

// Commits a response slot and the pending activity log row in one
// transaction, then hands back the job to schedule. A nil job with nil
// error means the rule was skipped (quota exhausted, or this comment was
// already dispatched for this rule).
func (eng *Engine) reserveAndLog(ctx context.Context, rule *models.Rule, evt *CommentEvent, res MatchResult) (*DispatchJob, error) {
	day := rule.DayKey(time.Now())

	// cheap duplicate check before consuming a quota slot. the unique index
	// below is the authoritative guard; this avoids burning reservations on
	// obvious resubmits.
	var n int64
	if err := eng.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("rule_id = ? AND comment_id = ?", rule.ID, evt.CommentID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		duplicateDispatchCount.Inc()
		return nil, nil
	}

	rendered := RenderTemplate(rule.ResponseTemplate, rule, evt)

	row := &models.ActivityLog{
		CreatorID:      rule.CreatorID,
		RuleID:         rule.ID,
		CommentID:      evt.CommentID,
		Platform:       evt.Platform,
		VideoID:        evt.ContentID,
		CommentText:    evt.Text,
		CommentAuthor:  evt.Author.Name,
		SentimentScore: evt.SentimentScore,
		ResponseAction: rule.ResponseAction,
		ResponseSent:   false,
		TriggeredAt:    time.Now(),
	}
	if res.MatchedKeyword != "" {
		kw := res.MatchedKeyword
		row.MatchedKeyword = &kw
	}
	row.AIConfidenceScore = res.Confidence

	txBound := false
	err := eng.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := eng.Quotas
		if b, ok := q.(quotastore.TxBinder); ok {
			q = b.WithTx(tx)
			txBound = true
		}
		reserved, err := q.Reserve(ctx, rule.ID, day, rule.MaxResponsesPerDay)
		if err != nil {
			return err
		}
		if !reserved {
			return errQuotaExceeded
		}
		// the row is written before any network call: a crash after this
		// commit shows up as "reserved, not sent" and is never auto-retried
		return tx.Create(row).Error
	})
	switch {
	case err == nil:
	case errors.Is(err, errQuotaExceeded):
		quotaExceededCount.Inc()
		return nil, nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// concurrent resubmission of the same comment. for transactional
		// quota backends the rollback already returned the slot.
		duplicateDispatchCount.Inc()
		if !txBound {
			if rerr := eng.Quotas.Release(ctx, rule.ID, day); rerr != nil {
				eng.Logger.Error("failed to release duplicate reservation", "ruleID", rule.ID, "err", rerr)
			}
		}
		return nil, nil
	default:
		return nil, err
	}

	return &DispatchJob{
		LogID:          row.ID,
		Rule:           *rule,
		Event:          *evt,
		RenderedText:   rendered,
		MatchedKeyword: res.MatchedKeyword,
	}, nil
}
