package provider

import (
	"context"

	"github.com/Sadiq-Teslim/linq-sub000/pkg/apollo"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/firecrawl"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/hunter"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/jina"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/perplexity"
)

type mockApollo struct {
	orgResp    *apollo.OrgSearchResponse
	peopleResp *apollo.PeopleSearchResponse
	matchResp  *apollo.PersonMatchResponse
	err        error

	orgCalls    int
	peopleCalls int
	matchCalls  int
}

func (m *mockApollo) SearchOrganizations(_ context.Context, _ apollo.OrgSearchRequest) (*apollo.OrgSearchResponse, error) {
	m.orgCalls++
	return m.orgResp, m.err
}

func (m *mockApollo) SearchPeople(_ context.Context, _ apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	m.peopleCalls++
	return m.peopleResp, m.err
}

func (m *mockApollo) MatchPerson(_ context.Context, _ apollo.PersonMatchRequest) (*apollo.PersonMatchResponse, error) {
	m.matchCalls++
	return m.matchResp, m.err
}

type mockHunter struct {
	domainResp *hunter.DomainSearchResponse
	finderResp *hunter.EmailFinderResponse
	verifyResp *hunter.EmailVerifierResponse
	err        error
}

func (m *mockHunter) DomainSearch(_ context.Context, _ hunter.DomainSearchRequest) (*hunter.DomainSearchResponse, error) {
	return m.domainResp, m.err
}

func (m *mockHunter) EmailFinder(_ context.Context, _ hunter.EmailFinderRequest) (*hunter.EmailFinderResponse, error) {
	return m.finderResp, m.err
}

func (m *mockHunter) EmailVerifier(_ context.Context, _ string) (*hunter.EmailVerifierResponse, error) {
	return m.verifyResp, m.err
}

type mockJina struct {
	readResp   *jina.ReadResponse
	searchResp *jina.SearchResponse
	err        error
}

func (m *mockJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	return m.readResp, m.err
}

func (m *mockJina) Search(_ context.Context, _ string, _ ...jina.SearchOption) (*jina.SearchResponse, error) {
	return m.searchResp, m.err
}

type mockPerplexity struct {
	resp *perplexity.ChatCompletionResponse
	err  error
}

func (m *mockPerplexity) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	return m.resp, m.err
}

type mockFirecrawl struct {
	responses map[string]*firecrawl.ScrapeResponse
	err       error
	calls     []string
}

func (m *mockFirecrawl) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	m.calls = append(m.calls, req.URL)
	if m.err != nil {
		return nil, m.err
	}
	if resp, ok := m.responses[req.URL]; ok {
		return resp, nil
	}
	return &firecrawl.ScrapeResponse{Success: true}, nil
}
