package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Sadiq-Teslim/linq-sub000/internal/extract"
	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/anthropic"
)

// maxRecordsPerSource caps the sample sent to the model per source.
const maxRecordsPerSource = 20

// assistTimeout bounds the model call. Longer than provider searches
// because the model reads the full candidate dump.
const assistTimeout = 60 * time.Second

const assistSystemPrompt = `You merge duplicate contact records for a company research tool.
Rules:
- Collapse records describing the same person (case-insensitive name match) into one.
- When two sources report an email or phone for the same person, prefer the structured API source listed first in the input.
- Union professional profile links and other fields across sources.
- Keep the source attribution of every contributing record.
Respond with only a JSON array, no prose:
[{"name": "...", "title": "...", "department": "...", "email": "...", "phone": "...", "profile_url": "...", "confidence": 0.0, "sources": ["..."]}]
Use an empty string for unknown fields. Never invent emails, phones, or URLs.`

// aiContact is the record shape the model is instructed to return.
type aiContact struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Department string   `json:"department"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	ProfileURL string   `json:"profile_url"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

// assistedMerge submits a size-capped sample per source to the model and
// parses the response as a strict list. Any failure (call error, timeout,
// unparseable output) is returned to the caller, which falls back to the
// deterministic merge.
func (e *Engine) assistedMerge(ctx context.Context, candidates []model.RawCandidate, companyName string) ([]model.CanonicalContact, error) {
	ctx, cancel := context.WithTimeout(ctx, assistTimeout)
	defer cancel()

	prompt := buildAssistPrompt(candidates, companyName, e.priority.Email)

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.aiModel,
		MaxTokens: 4096,
		System:    assistSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "merge: assist call")
	}

	if e.tracker != nil {
		costUSD := 0.0
		if e.calc != nil {
			costUSD = e.calc.Claude(e.aiModel, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
		e.tracker.Record("anthropic", model.OpAIMerge, costUSD, len(candidates), map[string]string{
			"company": companyName,
			"model":   e.aiModel,
		})
	}

	var parsed []aiContact
	if err := json.Unmarshal([]byte(extract.CleanJSONArray(resp.Text)), &parsed); err != nil {
		return nil, eris.Wrap(err, "merge: parse assist response")
	}

	out := make([]model.CanonicalContact, 0, len(parsed))
	for _, p := range parsed {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		c := model.CanonicalContact{
			Name:       p.Name,
			Title:      p.Title,
			Department: p.Department,
			Email:      strings.ToLower(strings.TrimSpace(p.Email)),
			Phone:      strings.TrimSpace(p.Phone),
			ProfileURL: strings.TrimSpace(p.ProfileURL),
			Confidence: model.ClampConfidence(p.Confidence),
			Sources:    p.Sources,
		}
		sort.Strings(c.Sources)
		out = append(out, c)
	}
	return out, nil
}

// buildAssistPrompt lays candidates out per source, highest-priority source
// first so the model's "prefer the first source" rule lands on the
// structured API.
func buildAssistPrompt(candidates []model.RawCandidate, companyName string, priority []string) string {
	bySource := make(map[string][]model.RawCandidate)
	var sources []string
	for _, c := range candidates {
		if _, ok := bySource[c.Source]; !ok {
			sources = append(sources, c.Source)
		}
		bySource[c.Source] = append(bySource[c.Source], c)
	}

	rank := func(source string) int {
		for i, s := range priority {
			if s == source {
				return i
			}
		}
		return len(priority)
	}
	sort.SliceStable(sources, func(i, j int) bool {
		ri, rj := rank(sources[i]), rank(sources[j])
		if ri != rj {
			return ri < rj
		}
		return sources[i] < sources[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", companyName)
	for _, source := range sources {
		records := bySource[source]
		if len(records) > maxRecordsPerSource {
			records = records[:maxRecordsPerSource]
		}
		fmt.Fprintf(&b, "\nSource %q (%d records):\n", source, len(records))
		data, err := json.Marshal(records)
		if err != nil {
			continue
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String()
}

