package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/replyforge/replyforge/autoreply/platform"
	"github.com/replyforge/replyforge/models"
)

// A reserved-and-logged dispatch waiting for its human-like delay to elapse.
// The activity log row (LogID) already exists with ResponseSent=false; the
// worker completes it with the terminal outcome.
type DispatchJob struct {
	LogID          uint
	Rule           models.Rule
	Event          CommentEvent
	RenderedText   string
	MatchedKeyword string
}

// Executes delayed sends without blocking comment matching. Schedule arms a
// timer per job; expired timers feed a buffered queue drained by a small
// worker pool. Jobs are never retried: a failed or dropped job leaves its
// log row as "reserved, not sent", which is the fail-closed crash signature
// as well.
type Dispatcher struct {
	Logger      *slog.Logger
	Adapter     platform.Adapter
	Webhook     *platform.WebhookNotifier
	SendLimit   *rate.Limiter
	CallTimeout time.Duration

	db    *gorm.DB
	queue chan *DispatchJob
	wg    sync.WaitGroup
}

type DispatcherConfig struct {
	Adapter    platform.Adapter
	WebhookURL string
	Logger     *slog.Logger
	// max platform calls per second across all rules
	SendRateLimit int
	CallTimeout   time.Duration
	QueueSize     int
}

func NewDispatcher(db *gorm.DB, config DispatcherConfig) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.SendRateLimit <= 0 {
		config.SendRateLimit = 5
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	return &Dispatcher{
		Logger:      logger.With("system", "dispatcher"),
		Adapter:     config.Adapter,
		Webhook:     platform.NewWebhookNotifier(config.WebhookURL),
		SendLimit:   rate.NewLimiter(rate.Limit(config.SendRateLimit), 1),
		CallTimeout: config.CallTimeout,
		db:          db,
		queue:       make(chan *DispatchJob, config.QueueSize),
	}
}

// Uniform draw from [min, max] whole seconds.
func SampleDelay(minSeconds, maxSeconds int) time.Duration {
	if maxSeconds <= minSeconds {
		return time.Duration(minSeconds) * time.Second
	}
	n := minSeconds + rand.IntN(maxSeconds-minSeconds+1)
	return time.Duration(n) * time.Second
}

func (d *Dispatcher) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

// Blocks until all workers have observed context cancellation. Timers still
// pending at shutdown are dropped; their rows stay reserved-not-sent.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Schedule(job *DispatchJob) {
	delay := SampleDelay(job.Rule.MinDelaySeconds, job.Rule.MaxDelaySeconds)
	dispatchScheduledCount.WithLabelValues(string(job.Rule.ResponseAction)).Inc()
	time.AfterFunc(delay, func() {
		select {
		case d.queue <- job:
		default:
			// queue saturated. leave the row reserved-not-sent rather than
			// block the timer goroutine.
			dispatchDroppedCount.Inc()
			d.Logger.Error("dispatch queue full, dropping job", "logID", job.LogID, "ruleID", job.Rule.ID)
		}
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.queue:
			d.execute(ctx, job)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, job *DispatchJob) {
	ctx, cancel := context.WithTimeout(ctx, d.CallTimeout)
	defer cancel()

	sendErr := d.send(ctx, job)

	now := time.Now()
	updates := map[string]any{
		"response_sent": sendErr == nil,
		"responded_at":  &now,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		updates["error_message"] = &msg
		dispatchOutcomeCount.WithLabelValues(string(job.Rule.ResponseAction), "error").Inc()
		d.Logger.Error("dispatch failed", "logID", job.LogID, "ruleID", job.Rule.ID, "commentID", job.Event.CommentID, "err", sendErr)
	} else {
		updates["response_text"] = &job.RenderedText
		dispatchOutcomeCount.WithLabelValues(string(job.Rule.ResponseAction), "ok").Inc()
		d.Logger.Info("dispatch sent", "logID", job.LogID, "ruleID", job.Rule.ID, "commentID", job.Event.CommentID, "action", job.Rule.ResponseAction)
	}

	if err := d.db.WithContext(context.WithoutCancel(ctx)).
		Model(&models.ActivityLog{}).
		Where("id = ?", job.LogID).
		Updates(updates).Error; err != nil {
		d.Logger.Error("failed to record dispatch outcome", "logID", job.LogID, "err", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, job *DispatchJob) error {
	switch job.Rule.ResponseAction {
	case models.ActionLogOnly:
		// no external call
		return nil
	case models.ActionWebhook:
		return d.Webhook.Send(ctx, platform.WebhookPayload{
			RuleID:         job.Rule.ID,
			CommentID:      job.Event.CommentID,
			Platform:       job.Event.Platform,
			RenderedText:   job.RenderedText,
			MatchedKeyword: job.MatchedKeyword,
		})
	case models.ActionReplyComment, models.ActionSendDM, models.ActionSendLink:
		text := job.RenderedText
		if job.Rule.ResponseAction == models.ActionSendLink && job.Rule.CustomLink != "" && !strings.Contains(text, job.Rule.CustomLink) {
			text = strings.TrimSpace(text + " " + job.Rule.CustomLink)
		}
		if err := d.SendLimit.Wait(ctx); err != nil {
			return err
		}
		_, err := d.Adapter.PostReply(ctx, job.Event.Platform, job.Event.ContentID, job.Event.CommentID, text)
		return err
	default:
		// validation should make this unreachable
		return nil
	}
}
