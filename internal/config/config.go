package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sadiq-Teslim/linq-sub000/internal/cost"
	"github.com/Sadiq-Teslim/linq-sub000/internal/merge"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
	"github.com/Sadiq-Teslim/linq-sub000/internal/waterfall"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Guard      GuardConfig      `yaml:"guard" mapstructure:"guard"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Merge      MergeConfig      `yaml:"merge" mapstructure:"merge"`
	Waterfall  WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend used for the persistent cache
// and the cost ledger.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApolloConfig holds Apollo.io API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader/Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	NoAssist    bool   `yaml:"no_assist" mapstructure:"no_assist"`
}

// GuardConfig configures the shared per-adapter call guard.
type GuardConfig struct {
	RequestsPerSecond   float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst               int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts         int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// CacheConfig configures read-through cache TTLs.
type CacheConfig struct {
	SearchTTLHours int `yaml:"search_ttl_hours" mapstructure:"search_ttl_hours"`
	EnrichTTLHours int `yaml:"enrich_ttl_hours" mapstructure:"enrich_ttl_hours"`
}

// MergeConfig configures the merge engine.
type MergeConfig struct {
	MaxContacts int            `yaml:"max_contacts" mapstructure:"max_contacts"`
	Priority    PriorityConfig `yaml:"priority" mapstructure:"priority"`
}

// PriorityConfig is the per-field source precedence table. Empty fields fall
// back to the built-in defaults.
type PriorityConfig struct {
	Email      []string `yaml:"email" mapstructure:"email"`
	Phone      []string `yaml:"phone" mapstructure:"phone"`
	ProfileURL []string `yaml:"profile_url" mapstructure:"profile_url"`
	Title      []string `yaml:"title" mapstructure:"title"`
}

// WaterfallConfig is the per-field adapter chain for backfilling.
type WaterfallConfig struct {
	Email []string `yaml:"email" mapstructure:"email"`
	Phone []string `yaml:"phone" mapstructure:"phone"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LINQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so the env binding
	// works without a config file entry.
	v.SetDefault("apollo.key", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "linq.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("guard.requests_per_second", 5)
	v.SetDefault("guard.burst", 2)
	v.SetDefault("guard.timeout_secs", 15)
	v.SetDefault("guard.max_attempts", 3)
	v.SetDefault("guard.breaker_threshold", 5)
	v.SetDefault("guard.breaker_cooldown_secs", 30)
	v.SetDefault("cache.search_ttl_hours", 24)
	v.SetDefault("cache.enrich_ttl_hours", 168)
	v.SetDefault("merge.max_contacts", 25)
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.firecrawl.per_page", 0.001)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ProviderGuard converts the guard section into the adapter guard settings.
func (c *Config) ProviderGuard() provider.GuardConfig {
	return provider.GuardConfig{
		RequestsPerSecond: c.Guard.RequestsPerSecond,
		Burst:             c.Guard.Burst,
		Timeout:           time.Duration(c.Guard.TimeoutSecs) * time.Second,
		BreakerThreshold:  c.Guard.BreakerThreshold,
		BreakerCooldown:   time.Duration(c.Guard.BreakerCooldownSecs) * time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts: c.Guard.MaxAttempts,
		},
	}
}

// MergePriority returns the configured precedence table, falling back to the
// defaults per field.
func (c *Config) MergePriority() merge.Priority {
	p := merge.DefaultPriority()
	if len(c.Merge.Priority.Email) > 0 {
		p.Email = c.Merge.Priority.Email
	}
	if len(c.Merge.Priority.Phone) > 0 {
		p.Phone = c.Merge.Priority.Phone
	}
	if len(c.Merge.Priority.ProfileURL) > 0 {
		p.ProfileURL = c.Merge.Priority.ProfileURL
	}
	if len(c.Merge.Priority.Title) > 0 {
		p.Title = c.Merge.Priority.Title
	}
	return p
}

// WaterfallChains returns the configured backfill chains, falling back to
// the defaults per field.
func (c *Config) WaterfallChains() *waterfall.Config {
	w := waterfall.DefaultConfig()
	if len(c.Waterfall.Email) > 0 {
		w.Fields[waterfall.FieldEmail] = c.Waterfall.Email
	}
	if len(c.Waterfall.Phone) > 0 {
		w.Fields[waterfall.FieldPhone] = c.Waterfall.Phone
	}
	return w
}

// PricingRates returns configured rates merged over the built-in defaults.
func (c *Config) PricingRates() cost.Rates {
	rates := cost.DefaultRates()
	if len(c.Pricing.Anthropic) > 0 {
		rates.Anthropic = c.Pricing.Anthropic
	}
	if c.Pricing.Jina.PerMTok > 0 {
		rates.Jina = c.Pricing.Jina
	}
	if c.Pricing.Perplexity.PerQuery > 0 {
		rates.Perplexity = c.Pricing.Perplexity
	}
	if c.Pricing.Firecrawl.PerPage > 0 {
		rates.Firecrawl = c.Pricing.Firecrawl
	}
	return rates
}

// SearchTTL returns the people/company search cache TTL.
func (c *Config) SearchTTL() time.Duration {
	return time.Duration(c.Cache.SearchTTLHours) * time.Hour
}

// EnrichTTL returns the person enrichment cache TTL.
func (c *Config) EnrichTTL() time.Duration {
	return time.Duration(c.Cache.EnrichTTLHours) * time.Hour
}

// Validate checks that the settings a command needs are present.
// mode selects the requirement set: "discover" needs at least one provider
// credential, "verify" needs Hunter, "costs" has no requirements beyond the
// store check.
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url is required with the postgres driver")
	}

	switch mode {
	case "discover", "enrich", "company":
		if c.Apollo.Key == "" && c.Hunter.Key == "" && c.Jina.Key == "" &&
			c.Perplexity.Key == "" && c.Firecrawl.Key == "" {
			missing = append(missing, "at least one provider key is required (apollo, hunter, jina, perplexity, firecrawl)")
		}
	case "verify":
		if c.Hunter.Key == "" {
			missing = append(missing, "hunter.key is required for email verification")
		}
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
