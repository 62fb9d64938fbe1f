package stats

import (
	"maps"
	"sync"
	"time"

	"github.com/pefman/cardstats/internal/dataset"
)

// Tracker counts operations in total and per UTC day (in-memory only).
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	total map[string]int
	daily map[string]map[string]int // YYYY-MM-DD -> op -> count
}

// NewTracker returns an empty Tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{
		now:   time.Now,
		total: map[string]int{},
		daily: map[string]map[string]int{},
	}
}

func (t *Tracker) dateKey() string { return t.now().UTC().Format("2006-01-02") }

// Record adds one occurrence of op.
func (t *Tracker) Record(op string) {
	if op == "" {
		return
	}
	key := t.dateKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total[op]++
	day := t.daily[key]
	if day == nil {
		day = map[string]int{}
		t.daily[key] = day
	}
	day[op]++
}

// Observe counts a committed store mutation under its op name. It is meant to
// be registered with dataset.WithObserver.
func (t *Tracker) Observe(ev dataset.Event) {
	t.Record(string(ev.Op))
}

// Totals returns a copy of the all-time counters.
func (t *Tracker) Totals() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.total)
}

// Today returns a copy of today's counters; empty when nothing happened yet.
func (t *Tracker) Today() map[string]int {
	key := t.dateKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	if day, ok := t.daily[key]; ok {
		return maps.Clone(day)
	}
	return map[string]int{}
}

// PruneDaily drops the counters of every day before today, keeping the
// totals, and returns how many days were removed.
func (t *Tracker) PruneDaily() int {
	key := t.dateKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k := range t.daily {
		if k != key {
			delete(t.daily, k)
			n++
		}
	}
	return n
}
