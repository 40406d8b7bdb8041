// Package model defines the core data types shared across the enrichment pipeline.
package model

// EnrichmentRequest identifies the target of a discovery call.
// It lives for the duration of a single call.
type EnrichmentRequest struct {
	CompanyName   string   `json:"company_name"`
	CompanyDomain string   `json:"company_domain,omitempty"`
	Location      string   `json:"location,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	MaxContacts   int      `json:"max_contacts"`
}

// RawCandidate is a single provider's unprocessed view of a contact.
// Immutable once produced by an adapter.
type RawCandidate struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Department string  `json:"department,omitempty"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	ProfileURL string  `json:"profile_url,omitempty"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// CanonicalContact is the merged, deduplicated representation of one person
// across all contributing sources. Attribution is never dropped by merging.
type CanonicalContact struct {
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	Department    string   `json:"department,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	ProfileURL    string   `json:"profile_url,omitempty"`
	DecisionMaker bool     `json:"decision_maker"`
	Confidence    float64  `json:"confidence"`
	Sources       []string `json:"sources"`

	// EmailSource and PhoneSource record which adapter backfilled the field
	// during the waterfall pass, when that differs from the merge sources.
	EmailSource string `json:"email_source,omitempty"`
	PhoneSource string `json:"phone_source,omitempty"`
}

// Key returns the normalized name key used for grouping and deduplication.
func (c CanonicalContact) Key() string {
	return NormalizeName(c.Name)
}

// HasSource reports whether the given source tag already contributed.
func (c CanonicalContact) HasSource(source string) bool {
	for _, s := range c.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// CompanyRecord holds canonical company attributes, produced by the
// highest-priority structured provider and backfilled from the others.
type CompanyRecord struct {
	Name          string `json:"name"`
	Domain        string `json:"domain,omitempty"`
	Industry      string `json:"industry,omitempty"`
	EmployeeRange string `json:"employee_range,omitempty"`
	Headquarters  string `json:"headquarters,omitempty"`
	Description   string `json:"description,omitempty"`
	LogoURL       string `json:"logo_url,omitempty"`
	ProfileURL    string `json:"profile_url,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Source        string `json:"source"`
}

// VerifyStatus classifies an email verification outcome.
type VerifyStatus string

const (
	VerifyValid        VerifyStatus = "valid"
	VerifyInvalid      VerifyStatus = "invalid"
	VerifyAcceptAll    VerifyStatus = "accept_all"
	VerifyUnknown      VerifyStatus = "unknown"
	VerifyDisposable   VerifyStatus = "disposable"
	VerifyWebmail      VerifyStatus = "webmail"
	VerifyUnverifiable VerifyStatus = "unverifiable"
)

// VerifyResult is the outcome of an email verification call.
type VerifyResult struct {
	Email      string       `json:"email"`
	Status     VerifyStatus `json:"status"`
	Confidence float64      `json:"confidence"`
	Source     string       `json:"source"`
}

// MergeQuality grades how complete a merged result set is.
type MergeQuality string

const (
	QualityExcellent MergeQuality = "excellent"
	QualityGood      MergeQuality = "good"
	QualityModerate  MergeQuality = "moderate"
	QualityLimited   MergeQuality = "limited"
	QualityNoData    MergeQuality = "no_data"
)

// DiscoveryResult is the output of a full contact discovery call.
type DiscoveryResult struct {
	Success         bool               `json:"success"`
	Contacts        []CanonicalContact `json:"contacts"`
	Company         *CompanyRecord     `json:"company,omitempty"`
	SourcesUsed     []string           `json:"sources_used"`
	MergeQuality    MergeQuality       `json:"merge_quality"`
	TotalRawResults int                `json:"total_raw_results"`
	TotalMerged     int                `json:"total_merged"`
}
