package waterfall

import (
	"context"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// enrichAdapter is a canned person-enrich provider.
type enrichAdapter struct {
	name    string
	cand    *model.RawCandidate
	err     error
	enabled bool
	calls   int
}

func (f *enrichAdapter) Name() string { return f.name }
func (f *enrichAdapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapPersonEnrich}
}
func (f *enrichAdapter) Enabled() bool { return f.enabled }
func (f *enrichAdapter) EstimateCost(model.Operation, int) float64 {
	return 0.05
}
func (f *enrichAdapter) SearchCompany(context.Context, string, string) (*model.CompanyRecord, error) {
	return nil, provider.ErrUnsupported
}
func (f *enrichAdapter) SearchPeople(context.Context, provider.PeopleQuery) ([]model.RawCandidate, error) {
	return nil, provider.ErrUnsupported
}
func (f *enrichAdapter) EnrichPerson(context.Context, provider.EnrichQuery) (*model.RawCandidate, error) {
	f.calls++
	return f.cand, f.err
}
func (f *enrichAdapter) VerifyEmail(context.Context, string) (*model.VerifyResult, error) {
	return nil, provider.ErrUnsupported
}

// recordingSink captures cost records.
type recordingSink struct {
	records []model.CostRecord
}

func (r *recordingSink) Record(p string, op model.Operation, cost float64, n int, meta map[string]string) {
	r.records = append(r.records, model.CostRecord{
		Provider: p, Operation: op, CostUSD: cost, ResultsCount: n,
	})
}

func chainConfig(names ...string) *Config {
	return &Config{Fields: map[FieldKey][]string{
		FieldEmail: names,
		FieldPhone: names,
	}}
}

func TestBackfillFirstNonEmptyWins(t *testing.T) {
	first := &enrichAdapter{name: "first", enabled: true, cand: &model.RawCandidate{
		Name: "Jane Smith", Email: "jane@acme.com", Source: "first", Confidence: 0.9,
	}}
	second := &enrichAdapter{name: "second", enabled: true, cand: &model.RawCandidate{
		Name: "Jane Smith", Email: "other@acme.com", Phone: "+1 512 555 0000", Source: "second", Confidence: 0.8,
	}}

	reg := provider.NewRegistry()
	reg.Register(first)
	reg.Register(second)

	sink := &recordingSink{}
	ex := NewExecutor(chainConfig("first", "second"), reg, nil, sink)

	contact := &model.CanonicalContact{Name: "Jane Smith", Sources: []string{"merge"}}
	res := ex.Backfill(context.Background(), contact, "acme.com")

	assert.Equal(t, "jane@acme.com", contact.Email, "first adapter's email wins")
	assert.Equal(t, "first", contact.EmailSource)
	assert.Equal(t, "+1 512 555 0000", contact.Phone, "phone falls through to the second adapter")
	assert.Equal(t, "second", contact.PhoneSource)

	assert.Equal(t, 1, first.calls, "each adapter is consulted at most once per contact")
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 2, res.FieldsResolved)
	assert.Len(t, sink.records, 2, "one cost record per actual call")
}

func TestBackfillSkipsFilledFields(t *testing.T) {
	a := &enrichAdapter{name: "a", enabled: true}
	reg := provider.NewRegistry()
	reg.Register(a)

	sink := &recordingSink{}
	ex := NewExecutor(chainConfig("a"), reg, nil, sink)

	contact := &model.CanonicalContact{
		Name:  "Jane Smith",
		Email: "jane@acme.com",
		Phone: "+1 512 555 0000",
	}
	res := ex.Backfill(context.Background(), contact, "acme.com")

	assert.Zero(t, a.calls, "already-filled fields trigger no provider calls")
	assert.Empty(t, sink.records, "no calls, no cost records")
	assert.True(t, res.Resolutions[FieldEmail].Skipped)
	assert.Equal(t, 2, res.FieldsResolved)
}

func TestBackfillSkipsDisabledAndContinuesOnError(t *testing.T) {
	disabled := &enrichAdapter{name: "disabled", enabled: false, cand: &model.RawCandidate{Email: "x@x.com"}}
	failing := &enrichAdapter{name: "failing", enabled: true, err: eris.New("boom")}
	working := &enrichAdapter{name: "working", enabled: true, cand: &model.RawCandidate{
		Email: "jane@acme.com", Confidence: 0.7,
	}}

	reg := provider.NewRegistry()
	reg.Register(disabled)
	reg.Register(failing)
	reg.Register(working)

	sink := &recordingSink{}
	ex := NewExecutor(chainConfig("disabled", "failing", "working"), reg, nil, sink)

	contact := &model.CanonicalContact{Name: "Jane Smith"}
	res := ex.Backfill(context.Background(), contact, "acme.com")

	assert.Zero(t, disabled.calls)
	assert.Equal(t, "jane@acme.com", contact.Email)
	assert.True(t, res.Resolutions[FieldEmail].Resolved)

	emailAttempts := res.Resolutions[FieldEmail].Attempts
	require.Len(t, emailAttempts, 2)
	assert.NotEmpty(t, emailAttempts[0].Err)
	assert.True(t, emailAttempts[1].Accepted)

	// the failed call produced no cost record
	require.Len(t, sink.records, 1)
	assert.Equal(t, "working", sink.records[0].Provider)
}

func TestBackfillUnfillableFieldStaysEmpty(t *testing.T) {
	a := &enrichAdapter{name: "a", enabled: true, cand: nil}
	reg := provider.NewRegistry()
	reg.Register(a)

	ex := NewExecutor(chainConfig("a"), reg, nil, nil)
	contact := &model.CanonicalContact{Name: "Jane Smith"}
	res := ex.Backfill(context.Background(), contact, "acme.com")

	assert.Empty(t, contact.Email)
	assert.Empty(t, contact.Phone)
	assert.Zero(t, res.FieldsResolved)
	assert.False(t, res.Resolutions[FieldEmail].Resolved)
}

func TestBackfillUsesCacheAcrossRuns(t *testing.T) {
	a := &enrichAdapter{name: "a", enabled: true, cand: &model.RawCandidate{
		Name: "Jane Smith", Email: "jane@acme.com", Confidence: 0.9,
	}}
	reg := provider.NewRegistry()
	reg.Register(a)

	c := cache.NewMemory()
	sink := &recordingSink{}
	ex := NewExecutor(chainConfig("a"), reg, c, sink)

	first := &model.CanonicalContact{Name: "Jane Smith"}
	ex.Backfill(context.Background(), first, "acme.com")
	require.Equal(t, 1, a.calls)

	second := &model.CanonicalContact{Name: "Jane Smith"}
	ex.Backfill(context.Background(), second, "acme.com")
	assert.Equal(t, 1, a.calls, "second run is served from cache")
	assert.Equal(t, "jane@acme.com", second.Email)

	assert.Len(t, sink.records, 1, "cached consultations are free")
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/waterfall.yaml"
	yaml := "waterfall:\n  fields:\n    email:\n      - hunter\n      - apollo\n"
	require.NoError(t, writeFile(path, yaml))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hunter", "apollo"}, cfg.Sources(FieldEmail))
	// phone keeps the default chain
	assert.Equal(t, DefaultConfig().Sources(FieldPhone), cfg.Sources(FieldPhone))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/waterfall.yaml")
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
