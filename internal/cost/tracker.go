package cost

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/store"
)

// Tracker records chargeable provider calls. Session accumulators are
// mutated by concurrently running fan-out tasks, so every update happens
// under the mutex; lost updates are a correctness bug, not a rounding issue.
type Tracker struct {
	mu sync.Mutex

	sessionCost float64
	sessionOps  int
	pending     []model.CostRecord

	st  store.Store // nil means session-only tracking
	now func() time.Time
}

// NewTracker creates a Tracker. st may be nil, in which case records live
// only for the session and Analytics reports session data.
func NewTracker(st store.Store) *Tracker {
	return &Tracker{st: st, now: time.Now}
}

// Record appends one immutable cost record and bumps the session totals.
// Safe for concurrent use.
func (t *Tracker) Record(provider string, op model.Operation, costUSD float64, resultsCount int, metadata map[string]string) {
	rec := model.CostRecord{
		ID:           uuid.NewString(),
		Provider:     provider,
		Operation:    op,
		CostUSD:      costUSD,
		ResultsCount: resultsCount,
		Metadata:     metadata,
		CreatedAt:    t.now().UTC(),
	}

	t.mu.Lock()
	t.sessionCost += costUSD
	t.sessionOps++
	t.pending = append(t.pending, rec)
	t.mu.Unlock()
}

// SessionCost returns the total spend since the last ResetSession.
func (t *Tracker) SessionCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionCost
}

// SessionOperations returns the number of calls since the last ResetSession.
func (t *Tracker) SessionOperations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionOps
}

// ResetSession zeroes the session accumulators. Unflushed records are kept;
// the ledger is append-only and independent of session boundaries.
func (t *Tracker) ResetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionCost = 0
	t.sessionOps = 0
}

// Flush persists pending records to the store. Without a store it is a
// no-op. On failure the records stay pending for the next flush.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	batch := t.pending
	t.pending = nil
	t.mu.Unlock()

	if len(batch) == 0 || t.st == nil {
		return nil
	}

	if err := t.st.AppendCostRecords(ctx, batch); err != nil {
		t.mu.Lock()
		t.pending = append(batch, t.pending...)
		t.mu.Unlock()
		return err
	}
	return nil
}

// Analytics aggregates spend over [start, end]. Records come from the store
// when one is configured and reachable; otherwise the session's records are
// aggregated and the result is marked SessionOnly.
func (t *Tracker) Analytics(ctx context.Context, start, end time.Time) (*model.CostAnalytics, error) {
	var records []model.CostRecord
	sessionOnly := t.st == nil

	if t.st != nil {
		var err error
		records, err = t.st.ListCostRecords(ctx, start, end)
		if err != nil {
			zap.L().Warn("cost: store unavailable for analytics, using session records", zap.Error(err))
			sessionOnly = true
		}
	}
	if sessionOnly {
		records = nil
		t.mu.Lock()
		for _, r := range t.pending {
			if inRange(r.CreatedAt, start, end) {
				records = append(records, r)
			}
		}
		t.mu.Unlock()
	}

	return aggregate(records, start, end, sessionOnly), nil
}

func inRange(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}

func aggregate(records []model.CostRecord, start, end time.Time, sessionOnly bool) *model.CostAnalytics {
	out := &model.CostAnalytics{
		ByProvider:  make(map[string]float64),
		ByOperation: make(map[model.Operation]float64),
		SessionOnly: sessionOnly,
	}

	daily := make(map[string]*model.DailyCost)
	for _, r := range records {
		out.TotalCostUSD += r.CostUSD
		out.ByProvider[r.Provider] += r.CostUSD
		out.ByOperation[r.Operation] += r.CostUSD

		day := r.CreatedAt.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &model.DailyCost{Date: day}
			daily[day] = d
		}
		d.CostUSD += r.CostUSD
		d.Operations++
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		out.DailyBreakdown = append(out.DailyBreakdown, *daily[day])
	}

	out.AverageDailyUSD = out.TotalCostUSD / float64(spanDays(start, end, len(daily)))
	return out
}

// spanDays returns the divisor for the daily average: the calendar span when
// a range is given, else the number of days that actually saw spend.
func spanDays(start, end time.Time, observed int) int {
	if !start.IsZero() && !end.IsZero() && !end.Before(start) {
		return int(end.Sub(start).Hours()/24) + 1
	}
	if observed > 0 {
		return observed
	}
	return 1
}
