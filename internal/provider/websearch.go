package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sadiq-Teslim/linq-sub000/internal/extract"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/jina"
)

// SourceWebSearch tags records produced by the web-search adapter.
const SourceWebSearch = "websearch"

var webSearchCosts = map[model.Operation]float64{
	model.OpWebSearch: 0.002,
	// people search is one web search under the hood
	model.OpPeopleSearch: 0.002,
}

// WebSearchAdapter discovers contacts from open web search results. Broad
// reach, low precision; its candidates carry low confidence and frequently
// lack emails, so it sits near the bottom of the default priority tables.
type WebSearchAdapter struct {
	client    jina.Client
	extractor *extract.Extractor
	enabled   bool
	guard     *guard
	costs     map[model.Operation]float64
}

// NewWebSearch creates the web-search adapter. An empty apiKey disables it.
func NewWebSearch(apiKey string, ex *extract.Extractor, cfg GuardConfig, opts ...jina.Option) *WebSearchAdapter {
	a := &WebSearchAdapter{
		extractor: ex,
		enabled:   apiKey != "",
		guard:     newGuard(SourceWebSearch, cfg),
		costs:     webSearchCosts,
	}
	if a.enabled {
		a.client = jina.NewClient(apiKey, opts...)
	}
	return a
}

// SetSearchCost prices one search from the configured rate card. People
// search is one web search under the hood, so both operations share it.
func (a *WebSearchAdapter) SetSearchCost(usd float64) {
	a.costs = map[model.Operation]float64{
		model.OpWebSearch:    usd,
		model.OpPeopleSearch: usd,
	}
}

func (a *WebSearchAdapter) Name() string { return SourceWebSearch }

func (a *WebSearchAdapter) Capabilities() []Capability {
	return []Capability{CapPeopleSearch}
}

func (a *WebSearchAdapter) Enabled() bool { return a.enabled }

func (a *WebSearchAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	return a.costs[op] * float64(quantity)
}

func (a *WebSearchAdapter) SearchCompany(_ context.Context, _, _ string) (*model.CompanyRecord, error) {
	return nil, ErrUnsupported
}

var profileURLRe = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/in/[A-Za-z0-9\-_%]+`)

func (a *WebSearchAdapter) SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error) {
	query := buildPeopleSearchQuery(q)
	if query == "" {
		return nil, nil
	}

	resp, err := execute(ctx, a.guard, string(model.OpWebSearch), func(ctx context.Context) (*jina.SearchResponse, error) {
		r, err := a.client.Search(ctx, query)
		return r, classifyJinaErr(err)
	})
	if err != nil {
		return nil, err
	}

	var out []model.RawCandidate
	for _, hit := range resp.Data {
		text := hit.Title + "\n" + hit.Description + "\n" + hit.Content
		cands := a.extractor.ExtractContactsFromText(text, SourceWebSearch)

		// A profile link in the hit itself beats anything the text yields.
		profile := ""
		if profileURLRe.MatchString(hit.URL) {
			profile = hit.URL
		} else if m := profileURLRe.FindString(text); m != "" {
			profile = m
		}

		for _, c := range cands {
			if c.ProfileURL == "" {
				c.ProfileURL = profile
			}
			out = append(out, c)
			if q.MaxResults > 0 && len(out) >= q.MaxResults {
				return out, nil
			}
		}
	}
	return out, nil
}

func (a *WebSearchAdapter) EnrichPerson(_ context.Context, _ EnrichQuery) (*model.RawCandidate, error) {
	return nil, ErrUnsupported
}

func (a *WebSearchAdapter) VerifyEmail(_ context.Context, _ string) (*model.VerifyResult, error) {
	return nil, ErrUnsupported
}

func buildPeopleSearchQuery(q PeopleQuery) string {
	company := q.CompanyName
	if company == "" {
		company = q.CompanyDomain
	}
	if company == "" {
		return ""
	}
	if len(q.JobTitles) == 0 {
		return fmt.Sprintf("%q leadership team contact", company)
	}
	return fmt.Sprintf("%q %s contact email", company, strings.Join(q.JobTitles, " OR "))
}

func classifyJinaErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *jina.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.Transient(err, apiErr.StatusCode)
		}
		return resilience.Permanent(err, apiErr.StatusCode)
	}
	return err
}
