// Package quotastore tracks per-(rule, day) response reservations against a
// rule's daily cap.
//
// Reserve is the single serialization point for concurrent comment events
// matching the same rule: every implementation performs an atomic
// increment-if-below-limit, never a read-then-write.
package quotastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type QuotaStore interface {
	// Attempts to commit one response slot for the rule on the given day
	// (creator-local date, time.DateOnly format). Returns false when the
	// daily cap is already consumed. A limit of zero always fails.
	Reserve(ctx context.Context, ruleID uint, day string, limit int) (bool, error)
	// Returns a previously committed slot. Only used when a reservation
	// turns out to duplicate an already-dispatched comment.
	Release(ctx context.Context, ruleID uint, day string) error
	GetCount(ctx context.Context, ruleID uint, day string) (int, error)
}

// Implemented by stores whose reservation can join a database transaction,
// so the quota increment and the activity log insert commit atomically.
type TxBinder interface {
	WithTx(tx *gorm.DB) QuotaStore
}

func quotaBucket(ruleID uint, day string) string {
	return fmt.Sprintf("%d/%s", ruleID, day)
}
