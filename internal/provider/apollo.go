package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/apollo"
)

// SourceApollo tags records produced by the Apollo adapter.
const SourceApollo = "apollo"

// apolloCosts holds per-call unit prices in USD.
var apolloCosts = map[model.Operation]float64{
	model.OpCompanySearch: 0.01,
	model.OpPeopleSearch:  0.02,
	model.OpPersonEnrich:  0.05,
}

// ApolloAdapter is the structured-API provider. Highest precision, first in
// every default priority table.
type ApolloAdapter struct {
	client  apollo.Client
	enabled bool
	guard   *guard
}

// NewApollo creates the Apollo adapter. An empty apiKey produces a disabled
// adapter that orchestrators skip.
func NewApollo(apiKey string, cfg GuardConfig, opts ...apollo.Option) *ApolloAdapter {
	a := &ApolloAdapter{
		enabled: apiKey != "",
		guard:   newGuard(SourceApollo, cfg),
	}
	if a.enabled {
		a.client = apollo.NewClient(apiKey, opts...)
	}
	return a
}

func (a *ApolloAdapter) Name() string { return SourceApollo }

func (a *ApolloAdapter) Capabilities() []Capability {
	return []Capability{CapCompanySearch, CapPeopleSearch, CapPersonEnrich}
}

func (a *ApolloAdapter) Enabled() bool { return a.enabled }

func (a *ApolloAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	return apolloCosts[op] * float64(quantity)
}

func (a *ApolloAdapter) SearchCompany(ctx context.Context, query, location string) (*model.CompanyRecord, error) {
	resp, err := execute(ctx, a.guard, string(model.OpCompanySearch), func(ctx context.Context) (*apollo.OrgSearchResponse, error) {
		r, err := a.client.SearchOrganizations(ctx, apollo.OrgSearchRequest{
			Query:    query,
			Location: location,
			PerPage:  1,
		})
		return r, classifyApolloErr(err)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Organizations) == 0 {
		return nil, nil
	}

	org := resp.Organizations[0]
	rec := &model.CompanyRecord{
		Name:          org.Name,
		Domain:        org.PrimaryDomain,
		Industry:      org.Industry,
		EmployeeRange: employeeBucket(org.EstimatedEmp),
		Headquarters:  joinLocation(org.City, org.State, org.Country),
		Description:   org.ShortDesc,
		LogoURL:       org.LogoURL,
		ProfileURL:    org.LinkedInURL,
		Phone:         org.Phone,
		Source:        SourceApollo,
	}
	if rec.Phone == "" {
		rec.Phone = org.PrimaryPhone.Number
	}
	return rec, nil
}

func (a *ApolloAdapter) SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error) {
	req := apollo.PeopleSearchRequest{
		OrganizationName: q.CompanyName,
		Titles:           q.JobTitles,
		Seniorities:      q.SeniorityLevels,
		Departments:      q.Departments,
		PerPage:          q.MaxResults,
	}
	if q.CompanyDomain != "" {
		req.OrganizationDomains = []string{q.CompanyDomain}
	}

	resp, err := execute(ctx, a.guard, string(model.OpPeopleSearch), func(ctx context.Context) (*apollo.PeopleSearchResponse, error) {
		r, err := a.client.SearchPeople(ctx, req)
		return r, classifyApolloErr(err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.RawCandidate, 0, len(resp.People))
	for _, p := range resp.People {
		out = append(out, apolloCandidate(p))
	}
	return out, nil
}

func (a *ApolloAdapter) EnrichPerson(ctx context.Context, q EnrichQuery) (*model.RawCandidate, error) {
	resp, err := execute(ctx, a.guard, string(model.OpPersonEnrich), func(ctx context.Context) (*apollo.PersonMatchResponse, error) {
		r, err := a.client.MatchPerson(ctx, apollo.PersonMatchRequest{
			Email:       q.Email,
			FirstName:   q.FirstName,
			LastName:    q.LastName,
			Domain:      q.CompanyDomain,
			LinkedInURL: q.ProfileURL,
		})
		return r, classifyApolloErr(err)
	})
	if err != nil {
		return nil, err
	}
	if resp.Person == nil {
		return nil, nil
	}
	cand := apolloCandidate(*resp.Person)
	return &cand, nil
}

func (a *ApolloAdapter) VerifyEmail(_ context.Context, _ string) (*model.VerifyResult, error) {
	return nil, ErrUnsupported
}

func apolloCandidate(p apollo.Person) model.RawCandidate {
	name := p.Name
	if name == "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}

	// Apollo occasionally redacts emails as "email_not_unlocked@domain.com".
	email := p.Email
	if strings.HasPrefix(email, "email_not_unlocked") {
		email = ""
	}

	conf := 0.85
	if email != "" && p.EmailStatus == "verified" {
		conf = 0.95
	} else if email == "" {
		conf = 0.7
	}

	var phone string
	if len(p.PhoneNumbers) > 0 {
		phone = p.PhoneNumbers[0].Number
	}

	var dept string
	if len(p.Departments) > 0 {
		dept = p.Departments[0]
	}

	return model.RawCandidate{
		Name:       name,
		Title:      p.Title,
		Department: dept,
		Email:      email,
		Phone:      phone,
		ProfileURL: p.LinkedInURL,
		Source:     SourceApollo,
		Confidence: conf,
	}
}

func classifyApolloErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apollo.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.Transient(err, apiErr.StatusCode)
		}
		return resilience.Permanent(err, apiErr.StatusCode)
	}
	return err
}

// employeeBucket maps a raw headcount to the coarse ranges used in company
// records.
func employeeBucket(n int) string {
	switch {
	case n <= 0:
		return ""
	case n <= 10:
		return "1-10"
	case n <= 50:
		return "11-50"
	case n <= 200:
		return "51-200"
	case n <= 500:
		return "201-500"
	case n <= 1000:
		return "501-1000"
	case n <= 5000:
		return "1001-5000"
	case n <= 10000:
		return "5001-10000"
	default:
		return "10000+"
	}
}

func joinLocation(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, ", ")
}
