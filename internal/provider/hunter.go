package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/hunter"
)

// SourceHunter tags records produced by the Hunter adapter.
const SourceHunter = "hunter"

var hunterCosts = map[model.Operation]float64{
	model.OpPeopleSearch: 0.02,
	model.OpPersonEnrich: 0.02,
	model.OpEmailVerify:  0.005,
}

// HunterAdapter is the directory provider: email discovery by domain plus
// deliverability verification.
type HunterAdapter struct {
	client  hunter.Client
	enabled bool
	guard   *guard
}

// NewHunter creates the Hunter adapter. An empty apiKey disables it.
func NewHunter(apiKey string, cfg GuardConfig, opts ...hunter.Option) *HunterAdapter {
	a := &HunterAdapter{
		enabled: apiKey != "",
		guard:   newGuard(SourceHunter, cfg),
	}
	if a.enabled {
		a.client = hunter.NewClient(apiKey, opts...)
	}
	return a
}

func (a *HunterAdapter) Name() string { return SourceHunter }

func (a *HunterAdapter) Capabilities() []Capability {
	return []Capability{CapPeopleSearch, CapPersonEnrich, CapEmailVerify}
}

func (a *HunterAdapter) Enabled() bool { return a.enabled }

func (a *HunterAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	return hunterCosts[op] * float64(quantity)
}

func (a *HunterAdapter) SearchCompany(_ context.Context, _, _ string) (*model.CompanyRecord, error) {
	return nil, ErrUnsupported
}

// SearchPeople lists personal addresses found for the company domain.
// Hunter has no role filter, so title filtering happens client-side.
func (a *HunterAdapter) SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error) {
	if q.CompanyDomain == "" && q.CompanyName == "" {
		return nil, nil
	}

	resp, err := execute(ctx, a.guard, string(model.OpPeopleSearch), func(ctx context.Context) (*hunter.DomainSearchResponse, error) {
		r, err := a.client.DomainSearch(ctx, hunter.DomainSearchRequest{
			Domain:  q.CompanyDomain,
			Company: q.CompanyName,
			Limit:   q.MaxResults,
		})
		return r, classifyHunterErr(err)
	})
	if err != nil {
		return nil, err
	}

	var out []model.RawCandidate
	for _, e := range resp.Data.Emails {
		if e.Type != "personal" {
			continue
		}
		name := strings.TrimSpace(e.FirstName + " " + e.LastName)
		if name == "" {
			continue
		}
		if len(q.JobTitles) > 0 && !titleMatches(e.Position, q.JobTitles) {
			continue
		}
		out = append(out, model.RawCandidate{
			Name:       name,
			Title:      e.Position,
			Department: e.Department,
			Email:      strings.ToLower(e.Value),
			Phone:      e.PhoneNum,
			ProfileURL: e.LinkedIn,
			Source:     SourceHunter,
			Confidence: model.ClampConfidence(float64(e.Confidence) / 100),
		})
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
	}
	return out, nil
}

func (a *HunterAdapter) EnrichPerson(ctx context.Context, q EnrichQuery) (*model.RawCandidate, error) {
	if q.FirstName == "" || q.LastName == "" || q.CompanyDomain == "" {
		return nil, nil
	}

	resp, err := execute(ctx, a.guard, string(model.OpPersonEnrich), func(ctx context.Context) (*hunter.EmailFinderResponse, error) {
		r, err := a.client.EmailFinder(ctx, hunter.EmailFinderRequest{
			Domain:    q.CompanyDomain,
			FirstName: q.FirstName,
			LastName:  q.LastName,
		})
		return r, classifyHunterErr(err)
	})
	if err != nil {
		return nil, err
	}
	if resp.Data.Email == "" {
		return nil, nil
	}

	d := resp.Data
	return &model.RawCandidate{
		Name:       strings.TrimSpace(d.FirstName + " " + d.LastName),
		Title:      d.Position,
		Email:      strings.ToLower(d.Email),
		Phone:      d.PhoneNum,
		ProfileURL: d.LinkedIn,
		Source:     SourceHunter,
		Confidence: model.ClampConfidence(float64(d.Score) / 100),
	}, nil
}

func (a *HunterAdapter) VerifyEmail(ctx context.Context, email string) (*model.VerifyResult, error) {
	resp, err := execute(ctx, a.guard, string(model.OpEmailVerify), func(ctx context.Context) (*hunter.EmailVerifierResponse, error) {
		r, err := a.client.EmailVerifier(ctx, email)
		return r, classifyHunterErr(err)
	})
	if err != nil {
		return nil, err
	}

	d := resp.Data
	return &model.VerifyResult{
		Email:      email,
		Status:     hunterVerifyStatus(d),
		Confidence: model.ClampConfidence(float64(d.Score) / 100),
		Source:     SourceHunter,
	}, nil
}

func hunterVerifyStatus(d hunter.EmailVerifierData) model.VerifyStatus {
	switch {
	case d.Disposable:
		return model.VerifyDisposable
	case d.Webmail:
		return model.VerifyWebmail
	}
	switch d.Status {
	case "valid":
		return model.VerifyValid
	case "invalid":
		return model.VerifyInvalid
	case "accept_all":
		return model.VerifyAcceptAll
	case "webmail":
		return model.VerifyWebmail
	case "disposable":
		return model.VerifyDisposable
	default:
		return model.VerifyUnknown
	}
}

func titleMatches(title string, wanted []string) bool {
	lower := strings.ToLower(title)
	for _, w := range wanted {
		for _, word := range strings.Fields(strings.ToLower(w)) {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}

func classifyHunterErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *hunter.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.Transient(err, apiErr.StatusCode)
		}
		return resilience.Permanent(err, apiErr.StatusCode)
	}
	return err
}
