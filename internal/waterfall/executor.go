package waterfall

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// defaultEnrichTTL is how long a provider's view of one person stays fresh.
const defaultEnrichTTL = 7 * 24 * time.Hour

// CostSink receives one record per chargeable provider call.
type CostSink interface {
	Record(provider string, op model.Operation, costUSD float64, resultsCount int, metadata map[string]string)
}

// Executor backfills missing contact fields by walking the configured
// adapter chain per field. Different fields may resolve from different
// adapters within the same contact.
type Executor struct {
	cfg      *Config
	registry *provider.Registry
	cache    cache.Cache
	tracker  CostSink
	cacheTTL time.Duration
}

// NewExecutor creates a waterfall executor. cache and tracker may be nil.
func NewExecutor(cfg *Config, registry *provider.Registry, c cache.Cache, tracker CostSink) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Executor{cfg: cfg, registry: registry, cache: c, tracker: tracker, cacheTTL: defaultEnrichTTL}
}

// SetCacheTTL overrides how long cached enrichment results stay fresh.
func (e *Executor) SetCacheTTL(d time.Duration) {
	if d > 0 {
		e.cacheTTL = d
	}
}

// Backfill fills the contact's empty fields in place and reports what each
// field cost. A field no adapter can fill stays empty; that is a normal
// outcome, not an error.
func (e *Executor) Backfill(ctx context.Context, contact *model.CanonicalContact, companyDomain string) *Result {
	result := &Result{Resolutions: make(map[FieldKey]FieldResolution)}

	// One adapter may answer for several fields; ask it at most once.
	enriched := make(map[string]*model.RawCandidate)

	for _, field := range fieldOrder {
		res := FieldResolution{Field: field}

		if fieldValue(contact, field) != "" {
			res.Resolved = true
			res.Skipped = true
			res.Source = fieldSource(contact, field)
			result.Resolutions[field] = res
			result.FieldsResolved++
			continue
		}

		for _, name := range e.cfg.Sources(field) {
			a := e.registry.Get(name)
			if a == nil || !a.Enabled() || !provider.HasCapability(a, provider.CapPersonEnrich) {
				continue
			}

			cand, attempt := e.consult(ctx, a, contact, companyDomain, enriched)
			result.TotalCostUSD += attempt.CostUSD
			if cand != nil {
				if v := candidateField(cand, field); v != "" {
					attempt.Value = v
					attempt.Accepted = true
					setField(contact, field, v, a.Name(), cand.Confidence)
					res.Resolved = true
					res.Source = a.Name()
					res.Confidence = cand.Confidence
				}
			}
			res.Attempts = append(res.Attempts, attempt)
			if res.Resolved {
				break
			}
			if ctx.Err() != nil {
				break
			}
		}

		if res.Resolved {
			result.FieldsResolved++
		}
		result.Resolutions[field] = res
	}

	return result
}

// consult asks one adapter for its view of the contact, going through the
// cache first. The cost record is emitted only on an actual provider call.
func (e *Executor) consult(ctx context.Context, a provider.Adapter, contact *model.CanonicalContact, companyDomain string, enriched map[string]*model.RawCandidate) (*model.RawCandidate, Attempt) {
	attempt := Attempt{Source: a.Name()}

	if cand, ok := enriched[a.Name()]; ok {
		attempt.Cached = true
		return cand, attempt
	}

	q := enrichQueryFor(contact, companyDomain)
	key := cache.Key("person_enrich", a.Name(), q.Email, q.FirstName, q.LastName, q.CompanyDomain, q.ProfileURL)

	if e.cache != nil {
		if raw, ok := e.cache.Get(ctx, key); ok {
			var cand model.RawCandidate
			if err := json.Unmarshal(raw, &cand); err == nil {
				attempt.Cached = true
				enriched[a.Name()] = &cand
				return &cand, attempt
			}
		}
	}

	cand, err := a.EnrichPerson(ctx, q)
	if err != nil {
		attempt.Err = err.Error()
		zap.L().Debug("waterfall: enrich failed",
			zap.String("provider", a.Name()),
			zap.String("contact", contact.Name),
			zap.Error(err),
		)
		enriched[a.Name()] = nil
		return nil, attempt
	}

	attempt.CostUSD = a.EstimateCost(model.OpPersonEnrich, 1)
	if e.tracker != nil {
		e.tracker.Record(a.Name(), model.OpPersonEnrich, attempt.CostUSD, resultCount(cand), map[string]string{
			"contact": contact.Name,
		})
	}

	enriched[a.Name()] = cand
	if cand != nil && e.cache != nil {
		if raw, err := json.Marshal(cand); err == nil {
			e.cache.Set(ctx, key, raw, e.cacheTTL)
		}
	}
	return cand, attempt
}

func enrichQueryFor(contact *model.CanonicalContact, companyDomain string) provider.EnrichQuery {
	q := provider.EnrichQuery{
		Email:         contact.Email,
		CompanyDomain: companyDomain,
		ProfileURL:    contact.ProfileURL,
	}
	parts := strings.Fields(contact.Name)
	if len(parts) >= 2 {
		q.FirstName = parts[0]
		q.LastName = parts[len(parts)-1]
	}
	return q
}

func resultCount(cand *model.RawCandidate) int {
	if cand == nil {
		return 0
	}
	return 1
}

func fieldValue(c *model.CanonicalContact, f FieldKey) string {
	switch f {
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	}
	return ""
}

func fieldSource(c *model.CanonicalContact, f FieldKey) string {
	switch f {
	case FieldEmail:
		return c.EmailSource
	case FieldPhone:
		return c.PhoneSource
	}
	return ""
}

func candidateField(cand *model.RawCandidate, f FieldKey) string {
	switch f {
	case FieldEmail:
		return cand.Email
	case FieldPhone:
		return cand.Phone
	}
	return ""
}

func setField(c *model.CanonicalContact, f FieldKey, value, source string, confidence float64) {
	switch f {
	case FieldEmail:
		c.Email = value
		c.EmailSource = source
	case FieldPhone:
		c.Phone = value
		c.PhoneSource = source
	}
	if confidence > c.Confidence {
		c.Confidence = model.ClampConfidence(confidence)
	}
	if !c.HasSource(source) {
		c.Sources = append(c.Sources, source)
	}
}
