// Package fanout runs contact discovery across every enabled provider in
// parallel. Each (adapter, role) pair is an isolated task: one provider's
// failure or timeout never costs the others their results.
package fanout

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// maxConcurrentTasks bounds the fan-out width.
const maxConcurrentTasks = 8

// defaultSearchTTL is how long a people-search result stays fresh.
const defaultSearchTTL = 24 * time.Hour

// CostSink receives one record per chargeable provider call.
type CostSink interface {
	Record(provider string, op model.Operation, costUSD float64, resultsCount int, metadata map[string]string)
}

// Output is the collected, pre-deduplicated raw candidate set.
type Output struct {
	Candidates      []model.RawCandidate
	TotalRaw        int
	SourcesWithData []string
}

// Orchestrator fans a discovery request out across the registry.
type Orchestrator struct {
	registry *provider.Registry
	cache    cache.Cache
	tracker  CostSink
	cacheTTL time.Duration
}

// New creates a fan-out orchestrator. cache and tracker may be nil.
func New(registry *provider.Registry, c cache.Cache, tracker CostSink) *Orchestrator {
	return &Orchestrator{registry: registry, cache: c, tracker: tracker, cacheTTL: defaultSearchTTL}
}

// SetCacheTTL overrides how long cached search results stay fresh.
func (o *Orchestrator) SetCacheTTL(d time.Duration) {
	if d > 0 {
		o.cacheTTL = d
	}
}

// Discover queries every enabled people-search adapter, one task per
// (adapter, role). Task failures are logged and contribute nothing. When the
// caller's deadline fires, whatever has been collected is still returned.
func (o *Orchestrator) Discover(ctx context.Context, req model.EnrichmentRequest) *Output {
	adapters := o.registry.Enabled(provider.CapPeopleSearch)
	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{""} // one untargeted query per adapter
	}

	var mu sync.Mutex
	collected := make([]model.RawCandidate, 0, 32)
	withData := make(map[string]bool)

	g, taskCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTasks)

	for _, a := range adapters {
		for _, role := range roles {
			a, role := a, role
			g.Go(func() error {
				cands := o.runTask(taskCtx, a, role, req)
				if len(cands) == 0 {
					return nil
				}
				mu.Lock()
				collected = append(collected, cands...)
				withData[a.Name()] = true
				mu.Unlock()
				return nil // task errors are absorbed, never group-fatal
			})
		}
	}
	_ = g.Wait()

	sources := make([]string, 0, len(withData))
	for name := range withData {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	return &Output{
		Candidates:      Dedup(collected),
		TotalRaw:        len(collected),
		SourcesWithData: sources,
	}
}

func (o *Orchestrator) runTask(ctx context.Context, a provider.Adapter, role string, req model.EnrichmentRequest) []model.RawCandidate {
	q := provider.PeopleQuery{
		CompanyName:   req.CompanyName,
		CompanyDomain: req.CompanyDomain,
		MaxResults:    req.MaxContacts,
	}
	if role != "" {
		q.JobTitles = []string{role}
	}

	key := cache.Key("people_search", a.Name(), req.CompanyName, req.CompanyDomain, role)
	if o.cache != nil {
		if raw, ok := o.cache.Get(ctx, key); ok {
			var cands []model.RawCandidate
			if err := json.Unmarshal(raw, &cands); err == nil {
				return cands
			}
		}
	}

	cands, err := a.SearchPeople(ctx, q)
	if err != nil {
		zap.L().Warn("fanout: provider task failed",
			zap.String("provider", a.Name()),
			zap.String("role", role),
			zap.String("company", req.CompanyName),
			zap.Error(err),
		)
		return nil
	}

	if o.tracker != nil {
		o.tracker.Record(a.Name(), model.OpPeopleSearch,
			a.EstimateCost(model.OpPeopleSearch, 1), len(cands),
			map[string]string{"company": req.CompanyName, "role": role},
		)
	}

	if o.cache != nil && len(cands) > 0 {
		if raw, err := json.Marshal(cands); err == nil {
			o.cache.Set(ctx, key, raw, o.cacheTTL)
		}
	}
	return cands
}

// Dedup drops exact duplicates before the merge engine sees the list:
// same email, or same normalized name + title. Cross-provider near
// duplicates are the merge engine's job, not ours.
func Dedup(cands []model.RawCandidate) []model.RawCandidate {
	seenEmail := make(map[string]bool)
	seenNameTitle := make(map[string]bool)

	out := make([]model.RawCandidate, 0, len(cands))
	for _, c := range cands {
		if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
			if seenEmail[email] {
				continue
			}
			seenEmail[email] = true
		}

		nameKey := model.NormalizeName(c.Name)
		if nameKey != "" {
			key := nameKey + "|" + strings.ToLower(strings.TrimSpace(c.Title))
			if seenNameTitle[key] {
				continue
			}
			seenNameTitle[key] = true
		}

		out = append(out, c)
	}
	return out
}
