package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Sadiq-Teslim/linq-sub000/internal/extract"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/perplexity"
)

// SourceProfileNet tags records produced by the professional-network adapter.
const SourceProfileNet = "profilenet"

var profileNetCosts = map[model.Operation]float64{
	model.OpPeopleSearch: 0.005,
	model.OpPersonEnrich: 0.005,
}

const profilePeoplePrompt = `List the leadership and key staff of the company %q%s.
For each person respond with their full name, job title, and public LinkedIn profile URL if known.
Respond with only a JSON array, no prose:
[{"name": "...", "title": "...", "profile_url": "...", "department": "..."}]
Include at most %d people. Use an empty string for unknown fields. Never invent profile URLs.`

const profileEnrichPrompt = `Describe the person at the public professional profile %s.
Respond with only a JSON object, no prose:
{"name": "...", "title": "...", "company": "...", "department": "...", "profile_url": "..."}
Use an empty string for unknown fields.`

// ProfileNetAdapter discovers people via a search-grounded language model
// over public professional profiles. Good at titles and profile URLs, never
// a source of emails or phone numbers.
type ProfileNetAdapter struct {
	client  perplexity.Client
	enabled bool
	guard   *guard
	costs   map[model.Operation]float64
}

// NewProfileNet creates the professional-network adapter. An empty apiKey
// disables it.
func NewProfileNet(apiKey string, cfg GuardConfig, opts ...perplexity.Option) *ProfileNetAdapter {
	a := &ProfileNetAdapter{
		enabled: apiKey != "",
		guard:   newGuard(SourceProfileNet, cfg),
		costs:   profileNetCosts,
	}
	if a.enabled {
		a.client = perplexity.NewClient(apiKey, opts...)
	}
	return a
}

// SetQueryCost prices one model query from the configured rate card. Every
// operation here is a single query.
func (a *ProfileNetAdapter) SetQueryCost(usd float64) {
	a.costs = map[model.Operation]float64{
		model.OpPeopleSearch: usd,
		model.OpPersonEnrich: usd,
	}
}

func (a *ProfileNetAdapter) Name() string { return SourceProfileNet }

func (a *ProfileNetAdapter) Capabilities() []Capability {
	return []Capability{CapPeopleSearch, CapPersonEnrich}
}

func (a *ProfileNetAdapter) Enabled() bool { return a.enabled }

func (a *ProfileNetAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	return a.costs[op] * float64(quantity)
}

func (a *ProfileNetAdapter) SearchCompany(_ context.Context, _, _ string) (*model.CompanyRecord, error) {
	return nil, ErrUnsupported
}

// profilePerson is the shape the model is instructed to return.
type profilePerson struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Department string `json:"department"`
	ProfileURL string `json:"profile_url"`
}

func (a *ProfileNetAdapter) SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error) {
	if q.CompanyName == "" && q.CompanyDomain == "" {
		return nil, nil
	}
	company := q.CompanyName
	if company == "" {
		company = q.CompanyDomain
	}
	roleHint := ""
	if len(q.JobTitles) > 0 {
		roleHint = fmt.Sprintf(", focusing on roles like %s", strings.Join(q.JobTitles, ", "))
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	text, err := a.complete(ctx, string(model.OpPeopleSearch),
		fmt.Sprintf(profilePeoplePrompt, company, roleHint, maxResults))
	if err != nil {
		return nil, err
	}

	var people []profilePerson
	if err := json.Unmarshal([]byte(extract.CleanJSONArray(text)), &people); err != nil {
		return nil, eris.Wrap(err, "profilenet: parse people response")
	}

	var out []model.RawCandidate
	for _, p := range people {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, model.RawCandidate{
			Name:       p.Name,
			Title:      p.Title,
			Department: p.Department,
			ProfileURL: p.ProfileURL,
			Source:     SourceProfileNet,
			Confidence: 0.6,
		})
		if len(out) >= maxResults {
			break
		}
	}
	return out, nil
}

func (a *ProfileNetAdapter) EnrichPerson(ctx context.Context, q EnrichQuery) (*model.RawCandidate, error) {
	if q.ProfileURL == "" {
		return nil, nil
	}

	text, err := a.complete(ctx, string(model.OpPersonEnrich),
		fmt.Sprintf(profileEnrichPrompt, q.ProfileURL))
	if err != nil {
		return nil, err
	}

	var p profilePerson
	if err := json.Unmarshal([]byte(extract.CleanJSONObject(text)), &p); err != nil {
		return nil, eris.Wrap(err, "profilenet: parse enrich response")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, nil
	}
	profile := p.ProfileURL
	if profile == "" {
		profile = q.ProfileURL
	}
	return &model.RawCandidate{
		Name:       p.Name,
		Title:      p.Title,
		Department: p.Department,
		ProfileURL: profile,
		Source:     SourceProfileNet,
		Confidence: 0.6,
	}, nil
}

func (a *ProfileNetAdapter) VerifyEmail(_ context.Context, _ string) (*model.VerifyResult, error) {
	return nil, ErrUnsupported
}

func (a *ProfileNetAdapter) complete(ctx context.Context, operation, prompt string) (string, error) {
	resp, err := execute(ctx, a.guard, operation, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		r, err := a.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages: []perplexity.Message{
				{Role: "user", Content: prompt},
			},
		})
		return r, classifyPerplexityErr(err)
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func classifyPerplexityErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *perplexity.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.Transient(err, apiErr.StatusCode)
		}
		return resilience.Permanent(err, apiErr.StatusCode)
	}
	return err
}

