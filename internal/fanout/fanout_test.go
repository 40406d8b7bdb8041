package fanout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// searchAdapter is a canned people-search provider.
type searchAdapter struct {
	name  string
	cands []model.RawCandidate
	err   error
	block bool // wait for ctx cancellation before returning

	mu    sync.Mutex
	calls int
}

func (f *searchAdapter) Name() string { return f.name }
func (f *searchAdapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapPeopleSearch}
}
func (f *searchAdapter) Enabled() bool { return true }
func (f *searchAdapter) EstimateCost(model.Operation, int) float64 {
	return 0.02
}
func (f *searchAdapter) SearchCompany(context.Context, string, string) (*model.CompanyRecord, error) {
	return nil, provider.ErrUnsupported
}
func (f *searchAdapter) SearchPeople(ctx context.Context, _ provider.PeopleQuery) ([]model.RawCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.cands, f.err
}
func (f *searchAdapter) EnrichPerson(context.Context, provider.EnrichQuery) (*model.RawCandidate, error) {
	return nil, provider.ErrUnsupported
}
func (f *searchAdapter) VerifyEmail(context.Context, string) (*model.VerifyResult, error) {
	return nil, provider.ErrUnsupported
}

func (f *searchAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu      sync.Mutex
	records []model.CostRecord
}

func (r *recordingSink) Record(p string, op model.Operation, cost float64, n int, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, model.CostRecord{Provider: p, Operation: op, CostUSD: cost, ResultsCount: n})
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func cand(name, email, source string) model.RawCandidate {
	return model.RawCandidate{Name: name, Email: email, Source: source, Confidence: 0.8}
}

func TestDiscoverAggregatesPerAdapterPerRole(t *testing.T) {
	a := &searchAdapter{name: "a", cands: []model.RawCandidate{cand("Jane Smith", "jane@acme.com", "a")}}
	b := &searchAdapter{name: "b", cands: []model.RawCandidate{cand("Bob Jones", "bob@acme.com", "b")}}

	reg := provider.NewRegistry()
	reg.Register(a)
	reg.Register(b)

	sink := &recordingSink{}
	o := New(reg, nil, sink)

	out := o.Discover(context.Background(), model.EnrichmentRequest{
		CompanyName: "Acme",
		Roles:       []string{"CEO", "CFO"},
		MaxContacts: 10,
	})

	assert.Equal(t, 2, a.callCount(), "one task per role")
	assert.Equal(t, 2, b.callCount())
	assert.Equal(t, []string{"a", "b"}, out.SourcesWithData)
	assert.Equal(t, 4, out.TotalRaw)
	// identical results per role collapse in the pre-merge dedup
	assert.Len(t, out.Candidates, 2)
	assert.Equal(t, 4, sink.count())
}

func TestDiscoverNoRolesRunsOneTaskPerAdapter(t *testing.T) {
	a := &searchAdapter{name: "a", cands: []model.RawCandidate{cand("Jane Smith", "", "a")}}
	reg := provider.NewRegistry()
	reg.Register(a)

	o := New(reg, nil, nil)
	out := o.Discover(context.Background(), model.EnrichmentRequest{CompanyName: "Acme"})

	assert.Equal(t, 1, a.callCount())
	assert.Len(t, out.Candidates, 1)
}

func TestDiscoverIsolatesFailures(t *testing.T) {
	failing := &searchAdapter{name: "failing", err: eris.New("provider down")}
	working := &searchAdapter{name: "working", cands: []model.RawCandidate{cand("Jane Smith", "jane@acme.com", "working")}}

	reg := provider.NewRegistry()
	reg.Register(failing)
	reg.Register(working)

	o := New(reg, nil, nil)
	out := o.Discover(context.Background(), model.EnrichmentRequest{CompanyName: "Acme", Roles: []string{"CEO"}})

	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "Jane Smith", out.Candidates[0].Name)
	assert.Equal(t, []string{"working"}, out.SourcesWithData)
}

func TestDiscoverDeadlineKeepsPartialResults(t *testing.T) {
	fast := &searchAdapter{name: "fast", cands: []model.RawCandidate{cand("Jane Smith", "jane@acme.com", "fast")}}
	slow := &searchAdapter{name: "slow", block: true}

	reg := provider.NewRegistry()
	reg.Register(fast)
	reg.Register(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	o := New(reg, nil, nil)
	out := o.Discover(ctx, model.EnrichmentRequest{CompanyName: "Acme", Roles: []string{"CEO"}})

	require.Len(t, out.Candidates, 1, "fast adapter's results survive the deadline")
	assert.Equal(t, []string{"fast"}, out.SourcesWithData)
}

func TestDiscoverServesFromCache(t *testing.T) {
	a := &searchAdapter{name: "a", cands: []model.RawCandidate{cand("Jane Smith", "jane@acme.com", "a")}}
	reg := provider.NewRegistry()
	reg.Register(a)

	c := cache.NewMemory()
	sink := &recordingSink{}
	o := New(reg, c, sink)
	req := model.EnrichmentRequest{CompanyName: "Acme", Roles: []string{"CEO"}}

	first := o.Discover(context.Background(), req)
	require.Len(t, first.Candidates, 1)
	require.Equal(t, 1, a.callCount())

	second := o.Discover(context.Background(), req)
	assert.Len(t, second.Candidates, 1)
	assert.Equal(t, 1, a.callCount(), "second discovery hits the cache")
	assert.Equal(t, 1, sink.count(), "cache hits are free")
}

func TestDedup(t *testing.T) {
	in := []model.RawCandidate{
		{Name: "Jane Smith", Email: "jane@acme.com", Title: "CEO", Source: "a"},
		{Name: "jane  smith", Email: "JANE@ACME.COM", Title: "Chief", Source: "b"}, // dup email
		{Name: "Jane Smith", Title: "CEO", Source: "c"},                            // dup name+title
		{Name: "Jane Smith", Title: "CTO", Source: "d"},                            // same name, new title
		{Name: "Bob Jones", Source: "e"},
	}

	out := Dedup(in)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Source)
	assert.Equal(t, "d", out[1].Source)
	assert.Equal(t, "Bob Jones", out[2].Name)
}

func TestDedupInsensitiveToOrder(t *testing.T) {
	forward := []model.RawCandidate{
		{Name: "Jane Smith", Email: "jane@acme.com", Source: "a"},
		{Name: "Bob Jones", Email: "bob@acme.com", Source: "b"},
	}
	reversed := []model.RawCandidate{forward[1], forward[0]}

	assert.Len(t, Dedup(forward), 2)
	assert.Len(t, Dedup(reversed), 2)
}
