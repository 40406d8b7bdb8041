package model

import "time"

// Operation is the kind of provider call being charged.
type Operation string

const (
	OpCompanySearch Operation = "company_search"
	OpPeopleSearch  Operation = "people_search"
	OpPersonEnrich  Operation = "person_enrich"
	OpEmailVerify   Operation = "email_verify"
	OpWebSearch     Operation = "web_search"
	OpScrape        Operation = "scrape"
	OpAIMerge       Operation = "ai_merge"
	OpAIExtract     Operation = "ai_extract"
)

// CostRecord captures a single chargeable provider call.
// Records are append-only and never mutated after creation.
type CostRecord struct {
	ID           string            `json:"id"`
	Provider     string            `json:"provider"`
	Operation    Operation         `json:"operation"`
	CostUSD      float64           `json:"cost_usd"`
	ResultsCount int               `json:"results_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// DailyCost is one day's aggregated spend.
type DailyCost struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	CostUSD    float64 `json:"cost_usd"`
	Operations int     `json:"operations"`
}

// CostAnalytics summarizes spend over a date range, bucketed by day,
// provider, and operation kind.
type CostAnalytics struct {
	TotalCostUSD    float64              `json:"total_cost_usd"`
	AverageDailyUSD float64              `json:"average_daily_usd"`
	ByProvider      map[string]float64   `json:"by_provider"`
	ByOperation     map[Operation]float64 `json:"by_operation"`
	DailyBreakdown  []DailyCost          `json:"daily_breakdown"`
	SessionOnly     bool                 `json:"session_only,omitempty"`
}
