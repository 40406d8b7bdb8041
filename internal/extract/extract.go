// Package extract pulls contact signals out of unstructured scraped text.
// It is strictly best-effort: malformed or empty input yields empty results,
// never an error, so scraping-based providers can always fall back to it.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/anthropic"
)

// Entities holds the named entities recognized in a block of text.
type Entities struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// Extractor recognizes entities and contact signals in raw text. When an AI
// client is configured it uses model-based NER, degrading to a capitalized-word
// heuristic when the model is unavailable or returns garbage.
type Extractor struct {
	ai    anthropic.Client
	model string
}

// NewExtractor creates an Extractor. ai may be nil, in which case only the
// heuristic paths are used.
func NewExtractor(ai anthropic.Client, aiModel string) *Extractor {
	return &Extractor{ai: ai, model: aiModel}
}

const nerPrompt = `Extract named entities from the text below. Respond with only a JSON object:
{"persons": ["..."], "organizations": ["..."], "locations": ["..."]}

Text:
%s`

// maxNERInput bounds how much text is sent to the model per call.
const maxNERInput = 8000

// ExtractEntities returns the persons, organizations, and locations mentioned
// in text. It never fails; on any model error it falls back to heuristics.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) Entities {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entities{}
	}

	if e.ai != nil {
		if ents, ok := e.aiEntities(ctx, text); ok {
			return ents
		}
	}
	return heuristicEntities(text)
}

func (e *Extractor) aiEntities(ctx context.Context, text string) (Entities, bool) {
	if len(text) > maxNERInput {
		text = text[:maxNERInput]
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(nerPrompt, text)},
		},
	})
	if err != nil {
		zap.L().Debug("extract: ner model call failed, using heuristic", zap.Error(err))
		return Entities{}, false
	}

	var ents Entities
	if err := json.Unmarshal([]byte(CleanJSONObject(resp.Text)), &ents); err != nil {
		zap.L().Debug("extract: ner response unparseable, using heuristic", zap.Error(err))
		return Entities{}, false
	}
	resp.Usage.LogCost(e.model, "ner")
	return ents, true
}

// orgSuffixes marks capitalized sequences that end in a company designator.
var orgSuffixes = []string{
	"inc", "llc", "corp", "corporation", "ltd", "co", "company",
	"group", "holdings", "partners", "associates", "solutions",
	"technologies", "systems",
}

// heuristicEntities scans for runs of capitalized words. Runs ending in a
// company designator are organizations, two-word runs are persons.
func heuristicEntities(text string) Entities {
	var ents Entities
	seenPerson := map[string]bool{}
	seenOrg := map[string]bool{}

	for _, run := range capitalizedRuns(text) {
		words := strings.Fields(run)
		last := strings.ToLower(words[len(words)-1])
		isOrg := false
		for _, s := range orgSuffixes {
			if last == s {
				isOrg = true
				break
			}
		}
		switch {
		case isOrg:
			if !seenOrg[run] {
				seenOrg[run] = true
				ents.Organizations = append(ents.Organizations, run)
			}
		case len(words) == 2:
			if !seenPerson[run] {
				seenPerson[run] = true
				ents.Persons = append(ents.Persons, run)
			}
		}
	}
	return ents
}

var capRunRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t][A-Z][a-z]+)+\b`)

func capitalizedRuns(text string) []string {
	return capRunRe.FindAllString(text, -1)
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`)
	nameRe  = regexp.MustCompile(`\b[A-Z][a-z]+[ \t]+[A-Z][a-z]+\b`)
)

// titleKeywords flags job-title phrases worth associating with a nearby name.
var titleKeywords = []string{
	"ceo", "cfo", "cto", "coo", "chief executive", "chief financial",
	"chief technology", "chief operating", "president", "vice president",
	"vp of", "founder", "co-founder", "owner", "partner", "principal",
	"managing director", "director of", "head of", "general manager",
	"manager",
}

// contactWindow is how many characters around a detected signal are searched
// for an associated person name.
const contactWindow = 120

// ExtractContactsFromText pattern-matches emails, phone numbers, and job-title
// keywords in text, associating a nearby capitalized name with each hit. It
// never fails; unusable input yields an empty slice.
func (e *Extractor) ExtractContactsFromText(text, sourceTag string) []model.RawCandidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	byName := make(map[string]*model.RawCandidate)
	order := []string{}

	add := func(name string) *model.RawCandidate {
		key := model.NormalizeName(name)
		if c, ok := byName[key]; ok {
			return c
		}
		c := &model.RawCandidate{
			Name:       name,
			Source:     sourceTag,
			Confidence: 0.3,
		}
		byName[key] = c
		order = append(order, key)
		return c
	}

	for _, loc := range emailRe.FindAllStringIndex(text, -1) {
		email := text[loc[0]:loc[1]]
		name := nearestName(text, loc[0], loc[1])
		if name == "" {
			name = nameFromEmail(email)
		}
		if name == "" {
			continue
		}
		c := add(name)
		if c.Email == "" {
			c.Email = strings.ToLower(email)
			c.Confidence = model.ClampConfidence(c.Confidence + 0.2)
		}
	}

	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		name := nearestName(text, loc[0], loc[1])
		if name == "" {
			continue
		}
		c := add(name)
		if c.Phone == "" {
			c.Phone = strings.TrimSpace(text[loc[0]:loc[1]])
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range titleKeywords {
		idx := 0
		for {
			pos := strings.Index(lower[idx:], kw)
			if pos < 0 {
				break
			}
			pos += idx
			name := nearestName(text, pos, pos+len(kw))
			if name != "" {
				c := add(name)
				if c.Title == "" {
					c.Title = titleAt(text, pos, len(kw))
				}
			}
			idx = pos + len(kw)
		}
	}

	out := make([]model.RawCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byName[key])
	}
	return out
}

// nearestName finds a capitalized first-last name within contactWindow
// characters of the span [start, end), preferring the closest match.
func nearestName(text string, start, end int) string {
	lo := start - contactWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contactWindow
	if hi > len(text) {
		hi = len(text)
	}

	window := text[lo:hi]
	matches := nameRe.FindAllStringIndex(window, -1)
	if len(matches) == 0 {
		return ""
	}

	best := ""
	bestDist := hi - lo + 1
	for _, m := range matches {
		// distance from the name to the signal span, in window coordinates
		sigLo, sigHi := start-lo, end-lo
		d := 0
		switch {
		case m[1] <= sigLo:
			d = sigLo - m[1]
		case m[0] >= sigHi:
			d = m[0] - sigHi
		}
		cand := window[m[0]:m[1]]
		if isTitleWord(cand) {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

// isTitleWord filters capitalized runs that are job titles, not names.
func isTitleWord(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// nameFromEmail guesses a person name from a first.last@ style local part.
func nameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	var sep string
	for _, s := range []string{".", "_", "-"} {
		if strings.Contains(local, s) {
			sep = s
			break
		}
	}
	if sep == "" {
		return ""
	}
	parts := strings.SplitN(local, sep, 2)
	if len(parts[0]) < 2 || len(parts[1]) < 2 {
		return ""
	}
	for _, p := range parts {
		for _, r := range p {
			if r < 'a' || r > 'z' {
				return ""
			}
		}
	}
	return capitalize(parts[0]) + " " + capitalize(parts[1])
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// titleAt expands a keyword hit to the full title phrase around it, cut at
// sentence or line boundaries.
func titleAt(text string, pos, kwLen int) string {
	lo := pos
	for lo > 0 && !strings.ContainsRune(",.;\n(", rune(text[lo-1])) && pos-lo < 40 {
		lo--
	}
	hi := pos + kwLen
	for hi < len(text) && !strings.ContainsRune(",.;\n)", rune(text[hi])) && hi-(pos+kwLen) < 40 {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}

// CleanJSONObject strips markdown fences and extracts the outermost JSON
// object from model output.
func CleanJSONObject(text string) string {
	return cleanJSON(text, "{", "}")
}

// CleanJSONArray strips markdown fences and extracts the outermost JSON
// array from model output.
func CleanJSONArray(text string) string {
	return cleanJSON(text, "[", "]")
}

func cleanJSON(text, opener, closer string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, opener)
	end := strings.LastIndex(text, closer)
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
