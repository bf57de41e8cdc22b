package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commentProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "autoreply_comment_duration_sec",
	Help: "Total duration of comment event processing",
}, []string{"platform"})

var commentProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_comments_processed",
	Help: "Number of comment events processed",
}, []string{"platform"})

var ruleMatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_rule_matches",
	Help: "Number of rule trigger matches",
}, []string{"trigger"})

// filter and quota skips never produce an activity log row; these counters
// are the only place they surface
var filterRejectCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_filter_rejections",
	Help: "Number of matched comments rejected by a safety filter",
}, []string{"reason"})

var quotaExceededCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "autoreply_quota_exceeded",
	Help: "Number of matched comments skipped because the daily quota was consumed",
})

var duplicateDispatchCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "autoreply_duplicate_dispatches",
	Help: "Number of dispatch attempts skipped by the (rule, comment) idempotency key",
})

var dispatchScheduledCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_dispatches_scheduled",
	Help: "Number of delayed dispatch jobs scheduled",
}, []string{"action"})

var dispatchOutcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_dispatch_outcomes",
	Help: "Terminal dispatch outcomes by action",
}, []string{"action", "outcome"})

var dispatchDroppedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "autoreply_dispatches_dropped",
	Help: "Number of dispatch jobs dropped due to queue saturation",
})

var classifierErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "autoreply_classifier_errors",
	Help: "Number of classifier calls which failed (treated as non-matches)",
}, []string{"kind"})
