// Package enrich is the top-level entry point of the pipeline. Its methods
// absorb every collaborator failure: callers see a success flag and result
// collections, never an error, because partial best-effort data always beats
// an exception.
package enrich

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/cost"
	"github.com/Sadiq-Teslim/linq-sub000/internal/fanout"
	"github.com/Sadiq-Teslim/linq-sub000/internal/merge"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
	"github.com/Sadiq-Teslim/linq-sub000/internal/waterfall"
)

// companyCacheTTL is how long a company search result stays fresh.
const companyCacheTTL = 24 * time.Hour

// Service wires the orchestrators together behind the public operations.
type Service struct {
	registry  *provider.Registry
	discovery *fanout.Orchestrator
	merger    *merge.Engine
	backfill  *waterfall.Executor
	cache     cache.Cache
	tracker   *cost.Tracker
}

// New assembles a Service. cache may be nil; tracker must not be.
func New(registry *provider.Registry, discovery *fanout.Orchestrator, merger *merge.Engine, backfill *waterfall.Executor, c cache.Cache, tracker *cost.Tracker) *Service {
	return &Service{
		registry:  registry,
		discovery: discovery,
		merger:    merger,
		backfill:  backfill,
		cache:     c,
		tracker:   tracker,
	}
}

// DiscoverContacts runs the full pipeline: company lookup, parallel people
// discovery, merge, and per-contact field backfill. It always returns a
// well-formed result; Success is false only when every enabled provider
// contributed zero data.
func (s *Service) DiscoverContacts(ctx context.Context, req model.EnrichmentRequest) *model.DiscoveryResult {
	result := &model.DiscoveryResult{
		Contacts:     []model.CanonicalContact{},
		SourcesUsed:  []string{},
		MergeQuality: model.QualityNoData,
	}

	company := s.lookupCompany(ctx, req.CompanyName, req.Location)
	if company != nil {
		result.Company = company
		if req.CompanyDomain == "" {
			req.CompanyDomain = company.Domain
		}
	}

	out := s.discovery.Discover(ctx, req)
	result.TotalRawResults = out.TotalRaw
	if len(out.SourcesWithData) > 0 {
		result.SourcesUsed = out.SourcesWithData
	}

	merged := s.merger.Merge(ctx, out.Candidates, req.CompanyName, req.MaxContacts)
	result.MergeQuality = merged.Quality
	result.TotalMerged = len(merged.Contacts)

	for i := range merged.Contacts {
		c := &merged.Contacts[i]
		if c.Email == "" || c.Phone == "" {
			s.backfill.Backfill(ctx, c, req.CompanyDomain)
		}
	}
	if len(merged.Contacts) > 0 {
		result.Contacts = merged.Contacts
	}

	result.Success = len(result.Contacts) > 0 || result.Company != nil
	return result
}

// EnrichPerson asks the enrichment chain for one person's record. A nil
// return means no enabled provider knows them.
func (s *Service) EnrichPerson(ctx context.Context, q provider.EnrichQuery) *model.CanonicalContact {
	for _, a := range s.registry.Enabled(provider.CapPersonEnrich) {
		cand, err := a.EnrichPerson(ctx, q)
		if err != nil {
			zap.L().Warn("enrich: person enrichment failed",
				zap.String("provider", a.Name()),
				zap.Error(err),
			)
			continue
		}
		if cand == nil {
			continue
		}

		s.tracker.Record(a.Name(), model.OpPersonEnrich,
			a.EstimateCost(model.OpPersonEnrich, 1), 1, nil)

		return &model.CanonicalContact{
			Name:          cand.Name,
			Title:         cand.Title,
			Department:    cand.Department,
			Email:         cand.Email,
			Phone:         cand.Phone,
			ProfileURL:    cand.ProfileURL,
			DecisionMaker: model.IsDecisionMakerTitle(cand.Title),
			Confidence:    model.ClampConfidence(cand.Confidence),
			Sources:       []string{cand.Source},
		}
	}
	return nil
}

// CompanySearchResult is the output of SearchCompany.
type CompanySearchResult struct {
	Success           bool                     `json:"success"`
	Company           *model.CompanyRecord     `json:"company,omitempty"`
	Contacts          []model.CanonicalContact `json:"contacts"`
	SessionCostUSD    float64                  `json:"session_cost_usd"`
	SessionOperations int                      `json:"session_operations"`
}

// SearchCompany looks a company up and optionally discovers its contacts.
func (s *Service) SearchCompany(ctx context.Context, query string, includeContacts bool, maxContacts int, location string) *CompanySearchResult {
	result := &CompanySearchResult{Contacts: []model.CanonicalContact{}}

	result.Company = s.lookupCompany(ctx, query, location)
	if result.Company != nil && includeContacts {
		discovered := s.DiscoverContacts(ctx, model.EnrichmentRequest{
			CompanyName:   result.Company.Name,
			CompanyDomain: result.Company.Domain,
			Location:      location,
			MaxContacts:   maxContacts,
		})
		result.Contacts = discovered.Contacts
	}

	result.Success = result.Company != nil
	result.SessionCostUSD = s.tracker.SessionCost()
	result.SessionOperations = s.tracker.SessionOperations()
	return result
}

// VerifyEmail checks deliverability through the first capable provider.
// When none succeeds the address is reported unverifiable, not an error.
func (s *Service) VerifyEmail(ctx context.Context, email string) *model.VerifyResult {
	for _, a := range s.registry.Enabled(provider.CapEmailVerify) {
		res, err := a.VerifyEmail(ctx, email)
		if err != nil {
			zap.L().Warn("enrich: email verification failed",
				zap.String("provider", a.Name()),
				zap.Error(err),
			)
			continue
		}
		if res == nil {
			continue
		}
		s.tracker.Record(a.Name(), model.OpEmailVerify,
			a.EstimateCost(model.OpEmailVerify, 1), 1, nil)
		return res
	}
	return &model.VerifyResult{Email: email, Status: model.VerifyUnverifiable}
}

// CostAnalytics reports spend over [start, end].
func (s *Service) CostAnalytics(ctx context.Context, start, end time.Time) *model.CostAnalytics {
	a, err := s.tracker.Analytics(ctx, start, end)
	if err != nil {
		zap.L().Warn("enrich: cost analytics unavailable", zap.Error(err))
		return &model.CostAnalytics{
			ByProvider:  map[string]float64{},
			ByOperation: map[model.Operation]float64{},
			SessionOnly: true,
		}
	}
	return a
}

// Flush persists pending cost records.
func (s *Service) Flush(ctx context.Context) error {
	return s.tracker.Flush(ctx)
}

// lookupCompany queries the first enabled company-search adapter, reading
// through the cache. Failures are absorbed; a nil return means unknown.
func (s *Service) lookupCompany(ctx context.Context, query, location string) *model.CompanyRecord {
	if query == "" {
		return nil
	}

	key := cache.Key("company_search", query, location)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var rec model.CompanyRecord
			if err := json.Unmarshal(raw, &rec); err == nil {
				return &rec
			}
		}
	}

	var base *model.CompanyRecord
	for _, a := range s.registry.Enabled(provider.CapCompanySearch) {
		rec, err := a.SearchCompany(ctx, query, location)
		if err != nil {
			zap.L().Warn("enrich: company search failed",
				zap.String("provider", a.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		s.tracker.Record(a.Name(), model.OpCompanySearch,
			a.EstimateCost(model.OpCompanySearch, 1), boolToCount(rec != nil), map[string]string{
				"query": query,
			})

		if rec == nil {
			continue
		}
		if base == nil {
			base = rec
		} else {
			fillCompanyGaps(base, rec)
		}
		if companyComplete(base) {
			break
		}
	}

	if base != nil && s.cache != nil {
		if raw, err := json.Marshal(base); err == nil {
			s.cache.Set(ctx, key, raw, companyCacheTTL)
		}
	}
	return base
}

// fillCompanyGaps copies fields the base record is missing from a
// lower-priority record. The base record's populated fields always win.
func fillCompanyGaps(base, other *model.CompanyRecord) {
	if base.Domain == "" {
		base.Domain = other.Domain
	}
	if base.Industry == "" {
		base.Industry = other.Industry
	}
	if base.EmployeeRange == "" {
		base.EmployeeRange = other.EmployeeRange
	}
	if base.Headquarters == "" {
		base.Headquarters = other.Headquarters
	}
	if base.Description == "" {
		base.Description = other.Description
	}
	if base.LogoURL == "" {
		base.LogoURL = other.LogoURL
	}
	if base.ProfileURL == "" {
		base.ProfileURL = other.ProfileURL
	}
	if base.Phone == "" {
		base.Phone = other.Phone
	}
	if base.Email == "" {
		base.Email = other.Email
	}
}

func companyComplete(rec *model.CompanyRecord) bool {
	return rec.Domain != "" && rec.Phone != "" && rec.Email != ""
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
