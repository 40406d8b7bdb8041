package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cache"
	"github.com/Sadiq-Teslim/linq-sub000/internal/cost"
	"github.com/Sadiq-Teslim/linq-sub000/internal/enrich"
	"github.com/Sadiq-Teslim/linq-sub000/internal/extract"
	"github.com/Sadiq-Teslim/linq-sub000/internal/fanout"
	"github.com/Sadiq-Teslim/linq-sub000/internal/merge"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
	"github.com/Sadiq-Teslim/linq-sub000/internal/store"
	"github.com/Sadiq-Teslim/linq-sub000/internal/waterfall"
	anthropicpkg "github.com/Sadiq-Teslim/linq-sub000/pkg/anthropic"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/apollo"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/firecrawl"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/hunter"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/jina"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/perplexity"
)

// jinaTokensPerSearch is the typical snippet volume of one search response,
// used to price a search from the per-token rate.
const jinaTokensPerSearch = 100_000

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "linq.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildService assembles the full pipeline from configuration. The returned
// cleanup flushes pending cost records and closes the store.
func buildService(ctx context.Context) (*enrich.Service, func(), error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	c := cache.NewStored(st)
	tracker := cost.NewTracker(st)

	var ai anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropicpkg.NewClient(cfg.Anthropic.Key)
	}
	extractor := extract.NewExtractor(ai, cfg.Anthropic.HaikuModel)

	calc := cost.NewCalculator(cfg.PricingRates())
	guard := cfg.ProviderGuard()
	reg := provider.NewRegistry()
	reg.Register(provider.NewApollo(cfg.Apollo.Key, guard,
		apollo.WithBaseURL(cfg.Apollo.BaseURL)))
	reg.Register(provider.NewHunter(cfg.Hunter.Key, guard,
		hunter.WithBaseURL(cfg.Hunter.BaseURL)))

	profileNet := provider.NewProfileNet(cfg.Perplexity.Key, guard,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model))
	profileNet.SetQueryCost(calc.PerplexityQuery())
	reg.Register(profileNet)

	scraper := provider.NewScraper(cfg.Firecrawl.Key, extractor, guard,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	scraper.SetPageCost(calc.FirecrawlPage())
	reg.Register(scraper)

	webSearch := provider.NewWebSearch(cfg.Jina.Key, extractor, guard,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	webSearch.SetSearchCost(calc.Jina(jinaTokensPerSearch))
	reg.Register(webSearch)

	var mergeAI anthropicpkg.Client
	if ai != nil && !cfg.Anthropic.NoAssist {
		mergeAI = ai
	}
	engine := merge.New(mergeAI, cfg.Anthropic.SonnetModel, cfg.MergePriority(), tracker, calc)

	discovery := fanout.New(reg, c, tracker)
	discovery.SetCacheTTL(cfg.SearchTTL())

	backfill := waterfall.NewExecutor(cfg.WaterfallChains(), reg, c, tracker)
	backfill.SetCacheTTL(cfg.EnrichTTL())

	svc := enrich.New(reg, discovery, engine, backfill, c, tracker)

	cleanup := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := svc.Flush(flushCtx); err != nil {
			zap.L().Warn("flush cost records", zap.Error(err))
		}
		if err := st.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
