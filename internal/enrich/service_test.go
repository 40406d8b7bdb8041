package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/cost"
	"github.com/Sadiq-Teslim/linq-sub000/internal/fanout"
	"github.com/Sadiq-Teslim/linq-sub000/internal/merge"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
	"github.com/Sadiq-Teslim/linq-sub000/internal/waterfall"
)

// newService builds a fully wired Service over the given fakes. The
// waterfall chain consults adapters in the order they are passed.
func newService(adapters ...*fakeAdapter) (*Service, *cost.Tracker) {
	reg := provider.NewRegistry()
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		reg.Register(a)
		names = append(names, a.name)
	}

	tracker := cost.NewTracker(nil)
	mem := cache.NewMemory()
	wcfg := &waterfall.Config{Fields: map[waterfall.FieldKey][]string{
		waterfall.FieldEmail: names,
		waterfall.FieldPhone: names,
	}}

	svc := New(
		reg,
		fanout.New(reg, mem, tracker),
		merge.New(nil, "", merge.DefaultPriority(), tracker, nil),
		waterfall.NewExecutor(wcfg, reg, mem, tracker),
		mem,
		tracker,
	)
	return svc, tracker
}

func TestDiscoverContactsNoProviders(t *testing.T) {
	svc, _ := newService()

	res := svc.DiscoverContacts(context.Background(), model.EnrichmentRequest{
		CompanyName: "Ghost Corp",
		MaxContacts: 5,
	})

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Empty(t, res.Contacts)
	assert.Empty(t, res.SourcesUsed)
	assert.Nil(t, res.Company)
	assert.Equal(t, model.QualityNoData, res.MergeQuality)
	assert.Zero(t, res.TotalRawResults)
	assert.Zero(t, res.TotalMerged)
}

func TestDiscoverContactsFullPipeline(t *testing.T) {
	structured := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapCompanySearch, provider.CapPeopleSearch},
		company: &model.CompanyRecord{
			Name:   "Acme Corp",
			Domain: "acme.com",
			Source: "apollo",
		},
		people: []model.RawCandidate{
			{Name: "Jane Smith", Title: "CEO", Email: "jane@acme.com", Source: "apollo", Confidence: 0.9},
		},
	}
	directory := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapPeopleSearch},
		people: []model.RawCandidate{
			{Name: "jane smith", Phone: "+1-555-0100", Source: "hunter", Confidence: 0.6},
			{Name: "Bob Lee", Title: "Engineer", Source: "hunter", Confidence: 0.5},
		},
	}

	svc, _ := newService(structured, directory)

	res := svc.DiscoverContacts(context.Background(), model.EnrichmentRequest{
		CompanyName: "Acme Corp",
		MaxContacts: 10,
	})

	assert.True(t, res.Success)
	require.NotNil(t, res.Company)
	assert.Equal(t, "acme.com", res.Company.Domain)
	assert.ElementsMatch(t, []string{"apollo", "hunter"}, res.SourcesUsed)
	assert.Equal(t, 3, res.TotalRawResults)
	assert.Equal(t, 2, res.TotalMerged)

	require.Len(t, res.Contacts, 2)
	jane := res.Contacts[0]
	assert.Equal(t, "Jane Smith", jane.Name)
	assert.Equal(t, "jane@acme.com", jane.Email)
	assert.Equal(t, "+1-555-0100", jane.Phone)
	assert.True(t, jane.DecisionMaker)
	assert.ElementsMatch(t, []string{"apollo", "hunter"}, jane.Sources)
}

func TestDiscoverContactsBackfillsMissingFields(t *testing.T) {
	searcher := &fakeAdapter{
		name: "websearch",
		caps: []provider.Capability{provider.CapPeopleSearch},
		people: []model.RawCandidate{
			{Name: "Sam Park", Title: "CTO", Source: "websearch", Confidence: 0.5},
		},
	}
	enricher := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapPersonEnrich},
		enriched: &model.RawCandidate{
			Name: "Sam Park", Email: "sam@acme.com", Source: "apollo", Confidence: 0.9,
		},
	}

	svc, _ := newService(searcher, enricher)

	res := svc.DiscoverContacts(context.Background(), model.EnrichmentRequest{
		CompanyName:   "Acme Corp",
		CompanyDomain: "acme.com",
		MaxContacts:   5,
	})

	require.Len(t, res.Contacts, 1)
	assert.Equal(t, "sam@acme.com", res.Contacts[0].Email)
	assert.Equal(t, "apollo", res.Contacts[0].EmailSource)
	assert.Equal(t, 1, enricher.enrichCalls)
}

func TestDiscoverContactsSurvivesProviderFailures(t *testing.T) {
	broken := &fakeAdapter{
		name:       "apollo",
		caps:       []provider.Capability{provider.CapCompanySearch, provider.CapPeopleSearch},
		companyErr: assert.AnError,
		peopleErr:  assert.AnError,
	}
	working := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapPeopleSearch},
		people: []model.RawCandidate{
			{Name: "Ada Byrne", Email: "ada@acme.com", Source: "hunter", Confidence: 0.7},
		},
	}

	svc, _ := newService(broken, working)

	res := svc.DiscoverContacts(context.Background(), model.EnrichmentRequest{
		CompanyName: "Acme Corp",
	})

	assert.True(t, res.Success)
	assert.Nil(t, res.Company)
	require.Len(t, res.Contacts, 1)
	assert.Equal(t, []string{"hunter"}, res.SourcesUsed)
}

func TestEnrichPersonFirstProviderWins(t *testing.T) {
	first := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapPersonEnrich},
		enriched: &model.RawCandidate{
			Name: "Jane Smith", Title: "CEO", Email: "jane@acme.com",
			Source: "apollo", Confidence: 0.9,
		},
	}
	second := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapPersonEnrich},
		enriched: &model.RawCandidate{
			Name: "Jane Smith", Source: "hunter", Confidence: 0.4,
		},
	}

	svc, tracker := newService(first, second)

	got := svc.EnrichPerson(context.Background(), provider.EnrichQuery{Email: "jane@acme.com"})

	require.NotNil(t, got)
	assert.Equal(t, "Jane Smith", got.Name)
	assert.True(t, got.DecisionMaker)
	assert.Equal(t, []string{"apollo"}, got.Sources)
	assert.Zero(t, second.enrichCalls)
	assert.Equal(t, 1, tracker.SessionOperations())
}

func TestEnrichPersonFallsThroughOnError(t *testing.T) {
	broken := &fakeAdapter{
		name:      "apollo",
		caps:      []provider.Capability{provider.CapPersonEnrich},
		enrichErr: assert.AnError,
	}
	backup := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapPersonEnrich},
		enriched: &model.RawCandidate{
			Name: "Jane Smith", Source: "hunter", Confidence: 0.5,
		},
	}

	svc, _ := newService(broken, backup)

	got := svc.EnrichPerson(context.Background(), provider.EnrichQuery{Email: "jane@acme.com"})
	require.NotNil(t, got)
	assert.Equal(t, []string{"hunter"}, got.Sources)
}

func TestEnrichPersonUnknown(t *testing.T) {
	svc, _ := newService(&fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapPersonEnrich},
	})

	assert.Nil(t, svc.EnrichPerson(context.Background(), provider.EnrichQuery{Email: "nobody@x.com"}))
}

func TestSearchCompanyWithContacts(t *testing.T) {
	a := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapCompanySearch, provider.CapPeopleSearch},
		company: &model.CompanyRecord{
			Name: "Acme Corp", Domain: "acme.com", Source: "apollo",
		},
		people: []model.RawCandidate{
			{Name: "Jane Smith", Email: "jane@acme.com", Source: "apollo", Confidence: 0.9},
		},
	}

	svc, _ := newService(a)

	res := svc.SearchCompany(context.Background(), "Acme Corp", true, 5, "")

	assert.True(t, res.Success)
	require.NotNil(t, res.Company)
	assert.Len(t, res.Contacts, 1)
	assert.Greater(t, res.SessionCostUSD, 0.0)
	assert.Greater(t, res.SessionOperations, 0)
}

func TestSearchCompanyCachesLookup(t *testing.T) {
	a := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapCompanySearch},
		company: &model.CompanyRecord{
			Name: "Acme Corp", Domain: "acme.com", Source: "apollo",
		},
	}

	svc, _ := newService(a)

	first := svc.SearchCompany(context.Background(), "Acme Corp", false, 0, "")
	second := svc.SearchCompany(context.Background(), "Acme Corp", false, 0, "")

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, 1, a.companyCalls)
	assert.Equal(t, "acme.com", second.Company.Domain)
}

func TestSearchCompanyBackfillsRecordGaps(t *testing.T) {
	primary := &fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapCompanySearch},
		company: &model.CompanyRecord{
			Name: "Acme Corp", Domain: "acme.com", Source: "apollo",
		},
	}
	secondary := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapCompanySearch},
		company: &model.CompanyRecord{
			Name: "ACME Corporation", Domain: "acme.io",
			Phone: "+1-555-0100", Email: "info@acme.com", Source: "hunter",
		},
	}

	svc, _ := newService(primary, secondary)

	res := svc.SearchCompany(context.Background(), "Acme Corp", false, 0, "")
	require.NotNil(t, res.Company)
	// Primary fields win; gaps fill from the secondary record.
	assert.Equal(t, "Acme Corp", res.Company.Name)
	assert.Equal(t, "acme.com", res.Company.Domain)
	assert.Equal(t, "+1-555-0100", res.Company.Phone)
	assert.Equal(t, "info@acme.com", res.Company.Email)
	assert.Equal(t, "apollo", res.Company.Source)
}

func TestSearchCompanyNotFound(t *testing.T) {
	svc, _ := newService(&fakeAdapter{
		name: "apollo",
		caps: []provider.Capability{provider.CapCompanySearch},
	})

	res := svc.SearchCompany(context.Background(), "Ghost Corp", false, 0, "")
	assert.False(t, res.Success)
	assert.Nil(t, res.Company)
	assert.Empty(t, res.Contacts)
}

func TestVerifyEmail(t *testing.T) {
	a := &fakeAdapter{
		name: "hunter",
		caps: []provider.Capability{provider.CapEmailVerify},
		verify: &model.VerifyResult{
			Email: "jane@acme.com", Status: model.VerifyValid, Confidence: 0.97, Source: "hunter",
		},
	}

	svc, tracker := newService(a)

	res := svc.VerifyEmail(context.Background(), "jane@acme.com")
	require.NotNil(t, res)
	assert.Equal(t, model.VerifyValid, res.Status)
	assert.Equal(t, 1, tracker.SessionOperations())
}

func TestVerifyEmailUnverifiableWhenAllFail(t *testing.T) {
	svc, _ := newService(&fakeAdapter{
		name:      "hunter",
		caps:      []provider.Capability{provider.CapEmailVerify},
		verifyErr: assert.AnError,
	})

	res := svc.VerifyEmail(context.Background(), "jane@acme.com")
	require.NotNil(t, res)
	assert.Equal(t, model.VerifyUnverifiable, res.Status)
	assert.Equal(t, "jane@acme.com", res.Email)
}

func TestCostAnalyticsSessionFallback(t *testing.T) {
	svc, tracker := newService()
	tracker.Record("apollo", model.OpCompanySearch, 0.01, 1, nil)

	a := svc.CostAnalytics(context.Background(), time.Time{}, time.Time{})
	require.NotNil(t, a)
	assert.InDelta(t, 0.01, a.TotalCostUSD, 1e-9)
}
