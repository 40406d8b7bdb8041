package waterfall

// FieldKey identifies a contact field the waterfall can backfill.
type FieldKey string

const (
	FieldEmail FieldKey = "email"
	FieldPhone FieldKey = "phone"
)

// fieldOrder is the fill order. Email resolves before phone so an email
// found by an early adapter can make the later phone lookup cheaper.
var fieldOrder = []FieldKey{FieldEmail, FieldPhone}

// Attempt records one adapter consultation for one field.
type Attempt struct {
	Source   string  `json:"source"`
	Value    string  `json:"value,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
	Err      string  `json:"error,omitempty"`
	CostUSD  float64 `json:"cost_usd,omitempty"`
	Accepted bool    `json:"accepted"`
}

// FieldResolution is the outcome of the waterfall for a single field.
type FieldResolution struct {
	Field      FieldKey  `json:"field"`
	Resolved   bool      `json:"resolved"`
	Source     string    `json:"source,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"` // already filled, no calls made
	Attempts   []Attempt `json:"attempts,omitempty"`
}

// Result is the overall output of one backfill run.
type Result struct {
	Resolutions    map[FieldKey]FieldResolution `json:"resolutions"`
	FieldsResolved int                          `json:"fields_resolved"`
	TotalCostUSD   float64                      `json:"total_cost_usd"`
}
