package results

import (
	"time"
)

// RetentionPolicy decides which catalog runs to keep.
type RetentionPolicy interface {
	Apply(runs []RunInfo) (keep []RunInfo)
}

// CountPolicy keeps the MaxCount most recent runs.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount runs (assumed sorted newest-first).
func (p *CountPolicy) Apply(runs []RunInfo) []RunInfo {
	if len(runs) <= p.MaxCount {
		return runs
	}
	return runs[:max(p.MaxCount, 0)]
}

// AgePolicy keeps runs newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	now    func() time.Time
}

// Apply keeps runs whose CreatedAt is within MaxAge of now.
func (p *AgePolicy) Apply(runs []RunInfo) []RunInfo {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []RunInfo
	for _, r := range runs {
		if r.CreatedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// CompositePolicy keeps a run if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of runs kept by any sub-policy, in input order.
func (p *CompositePolicy) Apply(runs []RunInfo) []RunInfo {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, r := range policy.Apply(runs) {
			kept[r.ID] = true
		}
	}
	var keep []RunInfo
	for _, r := range runs {
		if kept[r.ID] {
			keep = append(keep, r)
		}
	}
	return keep
}
