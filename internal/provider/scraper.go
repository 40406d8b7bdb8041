package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/extract"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/firecrawl"
)

// SourceScraper tags records produced by the website scraper adapter.
const SourceScraper = "scraper"

var scraperCosts = map[model.Operation]float64{
	model.OpScrape: 0.001,
	// people search fetches up to maxScrapePages pages
	model.OpPeopleSearch: 0.001 * maxScrapePages,
}

// scrapePaths are the company-site pages worth mining for contacts, in
// descending order of expected yield.
var scrapePaths = []string{"/about", "/team", "/contact", ""}

// maxScrapePages bounds how many pages one people search will fetch.
const maxScrapePages = 2

// ScraperAdapter mines a company's own website for contacts. It has no
// structured API behind it; everything flows through the text extractor.
type ScraperAdapter struct {
	client    firecrawl.Client
	extractor *extract.Extractor
	enabled   bool
	guard     *guard
	costs     map[model.Operation]float64
}

// NewScraper creates the scraper adapter. An empty apiKey disables it.
func NewScraper(apiKey string, ex *extract.Extractor, cfg GuardConfig, opts ...firecrawl.Option) *ScraperAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	a := &ScraperAdapter{
		extractor: ex,
		enabled:   apiKey != "",
		guard:     newGuard(SourceScraper, cfg),
		costs:     scraperCosts,
	}
	if a.enabled {
		a.client = firecrawl.NewClient(apiKey, opts...)
	}
	return a
}

// SetPageCost prices one scraped page from the configured rate card. A
// people search fetches up to maxScrapePages pages.
func (a *ScraperAdapter) SetPageCost(usd float64) {
	a.costs = map[model.Operation]float64{
		model.OpScrape:       usd,
		model.OpPeopleSearch: usd * maxScrapePages,
	}
}

func (a *ScraperAdapter) Name() string { return SourceScraper }

func (a *ScraperAdapter) Capabilities() []Capability {
	return []Capability{CapPeopleSearch}
}

func (a *ScraperAdapter) Enabled() bool { return a.enabled }

func (a *ScraperAdapter) EstimateCost(op model.Operation, quantity int) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	return a.costs[op] * float64(quantity)
}

func (a *ScraperAdapter) SearchCompany(_ context.Context, _, _ string) (*model.CompanyRecord, error) {
	return nil, ErrUnsupported
}

// SearchPeople scrapes up to maxScrapePages pages of the company site and
// extracts contacts from their text. A page that fails to scrape is skipped;
// only a total miss surfaces the last error.
func (a *ScraperAdapter) SearchPeople(ctx context.Context, q PeopleQuery) ([]model.RawCandidate, error) {
	domain := strings.TrimSpace(q.CompanyDomain)
	if domain == "" {
		return nil, nil
	}

	var out []model.RawCandidate
	var lastErr error
	scraped := 0
	for _, path := range scrapePaths {
		if scraped >= maxScrapePages {
			break
		}
		pageURL := "https://" + domain + path

		resp, err := execute(ctx, a.guard, string(model.OpScrape), func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
			r, err := a.client.Scrape(ctx, firecrawl.ScrapeRequest{URL: pageURL})
			return r, classifyFirecrawlErr(err)
		})
		if err != nil {
			lastErr = err
			zap.L().Debug("scraper: page fetch failed",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		scraped++

		cands := a.extractor.ExtractContactsFromText(resp.Data.Markdown, SourceScraper)
		out = append(out, cands...)
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			out = out[:q.MaxResults]
			break
		}
	}

	if len(out) == 0 && scraped == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (a *ScraperAdapter) EnrichPerson(_ context.Context, _ EnrichQuery) (*model.RawCandidate, error) {
	return nil, ErrUnsupported
}

func (a *ScraperAdapter) VerifyEmail(_ context.Context, _ string) (*model.VerifyResult, error) {
	return nil, ErrUnsupported
}

func classifyFirecrawlErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *firecrawl.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.Transient(err, apiErr.StatusCode)
		}
		return resilience.Permanent(err, apiErr.StatusCode)
	}
	return err
}
