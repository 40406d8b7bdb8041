// Package hunter provides a client for the Hunter.io email discovery API.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter API operations used by the pipeline.
type Client interface {
	// DomainSearch lists email addresses found for a domain.
	DomainSearch(ctx context.Context, req DomainSearchRequest) (*DomainSearchResponse, error)
	// EmailFinder guesses the most likely email for a person at a domain.
	EmailFinder(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error)
	// EmailVerifier checks the deliverability of an email address.
	EmailVerifier(ctx context.Context, email string) (*EmailVerifierResponse, error)
}

// DomainSearchRequest parameterizes GET /domain-search.
type DomainSearchRequest struct {
	Domain     string
	Company    string
	Department string
	Limit      int
}

// DomainSearchResponse is the response from GET /domain-search.
type DomainSearchResponse struct {
	Data DomainSearchData `json:"data"`
}

// DomainSearchData holds the domain search payload.
type DomainSearchData struct {
	Domain       string        `json:"domain"`
	Organization string        `json:"organization"`
	Emails       []FoundEmail  `json:"emails"`
}

// FoundEmail is one discovered address with its owner attributes.
type FoundEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"` // "personal" or "generic"
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	LinkedIn   string `json:"linkedin"`
	PhoneNum   string `json:"phone_number"`
}

// EmailFinderRequest parameterizes GET /email-finder.
type EmailFinderRequest struct {
	Domain    string
	Company   string
	FirstName string
	LastName  string
}

// EmailFinderResponse is the response from GET /email-finder.
type EmailFinderResponse struct {
	Data EmailFinderData `json:"data"`
}

// EmailFinderData holds the found email and its score.
type EmailFinderData struct {
	Email     string `json:"email"`
	Score     int    `json:"score"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	LinkedIn  string `json:"linkedin_url"`
	PhoneNum  string `json:"phone_number"`
}

// EmailVerifierResponse is the response from GET /email-verifier.
type EmailVerifierResponse struct {
	Data EmailVerifierData `json:"data"`
}

// EmailVerifierData holds the verification verdict.
type EmailVerifierData struct {
	Email      string `json:"email"`
	Status     string `json:"status"` // valid, invalid, accept_all, webmail, disposable, unknown
	Result     string `json:"result"` // deliverable, undeliverable, risky
	Score      int    `json:"score"`
	Disposable bool   `json:"disposable"`
	Webmail    bool   `json:"webmail"`
}

// APIError is returned for non-2xx responses so callers can classify
// transient vs permanent failures by status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: status %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a Hunter API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
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

func (c *httpClient) DomainSearch(ctx context.Context, req DomainSearchRequest) (*DomainSearchResponse, error) {
	params := url.Values{}
	if req.Domain != "" {
		params.Set("domain", req.Domain)
	}
	if req.Company != "" {
		params.Set("company", req.Company)
	}
	if req.Department != "" {
		params.Set("department", req.Department)
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	var result DomainSearchResponse
	if err := c.get(ctx, "/domain-search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) EmailFinder(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error) {
	params := url.Values{}
	if req.Domain != "" {
		params.Set("domain", req.Domain)
	}
	if req.Company != "" {
		params.Set("company", req.Company)
	}
	params.Set("first_name", req.FirstName)
	params.Set("last_name", req.LastName)

	var result EmailFinderResponse
	if err := c.get(ctx, "/email-finder", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) EmailVerifier(ctx context.Context, email string) (*EmailVerifierResponse, error) {
	params := url.Values{}
	params.Set("email", email)

	var result EmailVerifierResponse
	if err := c.get(ctx, "/email-verifier", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "hunter: unmarshal response")
	}
	return nil
}
