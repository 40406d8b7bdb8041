// Package apollo provides a client for the Apollo.io B2B data API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apollo.io/api/v1"

// Client defines the Apollo API operations used by the pipeline.
type Client interface {
	// SearchOrganizations looks up companies by name and optional location.
	SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error)
	// SearchPeople finds people at an organization filtered by title/seniority.
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
	// MatchPerson enriches a single person by email, name+domain, or profile URL.
	MatchPerson(ctx context.Context, req PersonMatchRequest) (*PersonMatchResponse, error)
}

// OrgSearchRequest is the body for POST /mixed_companies/search.
type OrgSearchRequest struct {
	Query    string `json:"q_organization_name,omitempty"`
	Location string `json:"organization_locations,omitempty"`
	PerPage  int    `json:"per_page,omitempty"`
}

// Organization is a single company record from Apollo.
type Organization struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PrimaryDomain  string `json:"primary_domain"`
	WebsiteURL     string `json:"website_url"`
	Industry       string `json:"industry"`
	EstimatedEmp   int    `json:"estimated_num_employees"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	ShortDesc      string `json:"short_description"`
	LogoURL        string `json:"logo_url"`
	LinkedInURL    string `json:"linkedin_url"`
	Phone          string `json:"phone"`
	PrimaryPhone   Phone  `json:"primary_phone"`
}

// Phone is Apollo's structured phone representation.
type Phone struct {
	Number string `json:"number"`
	Source string `json:"source"`
}

// OrgSearchResponse is the response from POST /mixed_companies/search.
type OrgSearchResponse struct {
	Organizations []Organization `json:"organizations"`
	Pagination    Pagination     `json:"pagination"`
}

// Pagination reports result paging info.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total_entries"`
}

// PeopleSearchRequest is the body for POST /mixed_people/search.
type PeopleSearchRequest struct {
	OrganizationName    string   `json:"q_organization_name,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains,omitempty"`
	Titles              []string `json:"person_titles,omitempty"`
	Seniorities         []string `json:"person_seniorities,omitempty"`
	Departments         []string `json:"person_departments,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// Person is a single person record from Apollo.
type Person struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Email        string `json:"email"`
	EmailStatus  string `json:"email_status"`
	LinkedInURL  string `json:"linkedin_url"`
	Seniority    string `json:"seniority"`
	Departments  []string `json:"departments"`
	PhoneNumbers []Phone  `json:"phone_numbers"`
}

// PeopleSearchResponse is the response from POST /mixed_people/search.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// PersonMatchRequest is the body for POST /people/match.
type PersonMatchRequest struct {
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// PersonMatchResponse is the response from POST /people/match.
type PersonMatchResponse struct {
	Person *Person `json:"person"`
}

// APIError is returned for non-2xx responses so callers can classify
// transient vs permanent failures by status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error) {
	var result OrgSearchResponse
	if err := c.post(ctx, "/mixed_companies/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	var result PeopleSearchResponse
	if err := c.post(ctx, "/mixed_people/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) MatchPerson(ctx context.Context, req PersonMatchRequest) (*PersonMatchResponse, error) {
	var result PersonMatchResponse
	if err := c.post(ctx, "/people/match", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "apollo: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "apollo: unmarshal response")
	}
	return nil
}
