package enrich

import (
	"context"
	"sync"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// fakeAdapter is a configurable in-memory provider used across the service
// tests. Call counts are tracked under a mutex because fan-out runs tasks
// concurrently.
type fakeAdapter struct {
	mu   sync.Mutex
	name string
	caps []provider.Capability
	off  bool

	company    *model.CompanyRecord
	companyErr error
	people     []model.RawCandidate
	peopleErr  error
	enriched   *model.RawCandidate
	enrichErr  error
	verify     *model.VerifyResult
	verifyErr  error

	companyCalls int
	peopleCalls  int
	enrichCalls  int
	verifyCalls  int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Capabilities() []provider.Capability { return f.caps }

func (f *fakeAdapter) Enabled() bool { return !f.off }

func (f *fakeAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	return 0.01 * float64(quantity)
}

func (f *fakeAdapter) SearchCompany(ctx context.Context, query, location string) (*model.CompanyRecord, error) {
	f.mu.Lock()
	f.companyCalls++
	f.mu.Unlock()
	return f.company, f.companyErr
}

func (f *fakeAdapter) SearchPeople(ctx context.Context, q provider.PeopleQuery) ([]model.RawCandidate, error) {
	f.mu.Lock()
	f.peopleCalls++
	f.mu.Unlock()
	return f.people, f.peopleErr
}

func (f *fakeAdapter) EnrichPerson(ctx context.Context, q provider.EnrichQuery) (*model.RawCandidate, error) {
	f.mu.Lock()
	f.enrichCalls++
	f.mu.Unlock()
	return f.enriched, f.enrichErr
}

func (f *fakeAdapter) VerifyEmail(ctx context.Context, email string) (*model.VerifyResult, error) {
	f.mu.Lock()
	f.verifyCalls++
	f.mu.Unlock()
	return f.verify, f.verifyErr
}
