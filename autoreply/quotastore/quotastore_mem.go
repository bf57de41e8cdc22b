package quotastore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// In-process quota store for tests and single-node deployments. The xsync
// map's Compute gives the atomic increment-if-below-limit without a global
// lock.
type MemQuotaStore struct {
	counts *xsync.MapOf[string, int]
}

func NewMemQuotaStore() *MemQuotaStore {
	return &MemQuotaStore{
		counts: xsync.NewMapOf[string, int](),
	}
}

func (s *MemQuotaStore) Reserve(ctx context.Context, ruleID uint, day string, limit int) (bool, error) {
	reserved := false
	s.counts.Compute(quotaBucket(ruleID, day), func(old int, loaded bool) (int, bool) {
		if old >= limit {
			return old, false
		}
		reserved = true
		return old + 1, false
	})
	return reserved, nil
}

func (s *MemQuotaStore) Release(ctx context.Context, ruleID uint, day string) error {
	s.counts.Compute(quotaBucket(ruleID, day), func(old int, loaded bool) (int, bool) {
		if old <= 0 {
			return 0, false
		}
		return old - 1, false
	})
	return nil
}

func (s *MemQuotaStore) GetCount(ctx context.Context, ruleID uint, day string) (int, error) {
	v, _ := s.counts.Load(quotaBucket(ruleID, day))
	return v, nil
}
