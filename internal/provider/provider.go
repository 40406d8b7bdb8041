// Package provider defines the uniform adapter interface over external data
// sources and its concrete implementations. Orchestrators depend only on the
// Adapter interface and the Registry; which vendor sits behind a capability
// is configuration, not code.
package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

// Capability identifies one operation an adapter may support.
type Capability string

const (
	CapCompanySearch Capability = "company_search"
	CapPeopleSearch  Capability = "people_search"
	CapPersonEnrich  Capability = "person_enrich"
	CapEmailVerify   Capability = "email_verify"
)

// ErrUnsupported is returned when an adapter is asked for an operation
// outside its capability set. Orchestrators filter by capability first,
// so hitting this is a wiring bug, not a runtime condition.
var ErrUnsupported = eris.New("operation not supported by this provider")

// PeopleQuery parameterizes a people search against one provider.
type PeopleQuery struct {
	CompanyName     string
	CompanyDomain   string
	JobTitles       []string
	SeniorityLevels []string
	Departments     []string
	MaxResults      int
}

// EnrichQuery identifies a single person for enrichment. At least one of
// Email, (FirstName, LastName, CompanyDomain), or ProfileURL must be set.
type EnrichQuery struct {
	Email         string
	FirstName     string
	LastName      string
	CompanyDomain string
	ProfileURL    string
}

// Adapter wraps one external data source behind a capability set. Not every
// adapter implements every operation; unimplemented ones return
// ErrUnsupported. A disabled adapter (missing credentials) is skipped
// silently by orchestrators.
type Adapter interface {
	// Name returns the source tag stamped onto every record this adapter
	// produces. It matches the names used in priority tables.
	Name() string
	// Capabilities returns the operations this adapter supports.
	Capabilities() []Capability
	// Enabled reports whether required credentials are present.
	Enabled() bool
	// EstimateCost returns the expected charge in USD for quantity calls
	// of the given operation.
	EstimateCost(op model.Operation, quantity int) float64

	// SearchCompany returns the best-matching company, or nil when none.
	SearchCompany(ctx context.Context, query, location string) (*model.CompanyRecord, error)
	// SearchPeople returns raw candidates matching the query.
	SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error)
	// EnrichPerson returns the provider's view of one person, or nil when
	// the person is unknown to it.
	EnrichPerson(ctx context.Context, q EnrichQuery) (*model.RawCandidate, error)
	// VerifyEmail checks deliverability of an address.
	VerifyEmail(ctx context.Context, email string) (*model.VerifyResult, error)
}

// HasCapability reports whether a supports c.
func HasCapability(a Adapter, c Capability) bool {
	for _, got := range a.Capabilities() {
		if got == c {
			return true
		}
	}
	return false
}
