// Package merge reconciles raw candidates from multiple providers into
// canonical contacts. An AI-assisted path is preferred when a model is
// configured; a deterministic rule-based merge is always available behind
// it, and falling back is an expected control path.
package merge

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
	"github.com/Sadiq-Teslim/linq-sub000/pkg/anthropic"
)

// Outcome tags which merge path produced the result.
type Outcome string

const (
	OutcomeAssisted      Outcome = "assisted"
	OutcomeDeterministic Outcome = "deterministic"
)

// Priority is the per-field source precedence table. For each field the
// first listed source with a non-empty value wins; sources not listed rank
// after all listed ones.
type Priority struct {
	Email      []string `yaml:"email"`
	Phone      []string `yaml:"phone"`
	ProfileURL []string `yaml:"profile_url"`
	Title      []string `yaml:"title"`
}

// DefaultPriority ranks the structured API first for contact fields and the
// profile network first for profile URLs.
func DefaultPriority() Priority {
	contact := []string{
		provider.SourceApollo,
		provider.SourceHunter,
		provider.SourceProfileNet,
		provider.SourceScraper,
		provider.SourceWebSearch,
	}
	return Priority{
		Email: contact,
		Phone: contact,
		ProfileURL: []string{
			provider.SourceProfileNet,
			provider.SourceApollo,
			provider.SourceWebSearch,
			provider.SourceHunter,
			provider.SourceScraper,
		},
		Title: contact,
	}
}

// CostSink receives one record per chargeable model call.
type CostSink interface {
	Record(provider string, op model.Operation, costUSD float64, resultsCount int, metadata map[string]string)
}

// Engine merges raw candidates into canonical contacts.
type Engine struct {
	ai       anthropic.Client // nil disables the assisted path
	aiModel  string
	priority Priority
	tracker  CostSink
	calc     ClaudeCoster
}

// ClaudeCoster prices a model call from its token usage.
type ClaudeCoster interface {
	Claude(model string, input, output int64) float64
}

// New creates a merge engine. ai, tracker, and calc may be nil.
func New(ai anthropic.Client, aiModel string, priority Priority, tracker CostSink, calc ClaudeCoster) *Engine {
	if len(priority.Email) == 0 {
		priority = DefaultPriority()
	}
	return &Engine{ai: ai, aiModel: aiModel, priority: priority, tracker: tracker, calc: calc}
}

// Result is the merge output plus its quality grade.
type Result struct {
	Contacts []model.CanonicalContact
	Quality  model.MergeQuality
	Outcome  Outcome
}

// Merge reconciles candidates into at most maxResults canonical contacts.
// The post-process pass runs regardless of which strategy produced the
// records, making Merge idempotent over its own output.
func (e *Engine) Merge(ctx context.Context, candidates []model.RawCandidate, companyName string, maxResults int) *Result {
	if len(candidates) == 0 {
		return &Result{Quality: model.QualityNoData, Outcome: OutcomeDeterministic}
	}

	var contacts []model.CanonicalContact
	outcome := OutcomeDeterministic

	if e.ai != nil {
		assisted, err := e.assistedMerge(ctx, candidates, companyName)
		if err != nil {
			zap.L().Info("merge: assisted path unavailable, using deterministic merge",
				zap.Error(err),
			)
		} else {
			contacts = assisted
			outcome = OutcomeAssisted
		}
	}
	if outcome == OutcomeDeterministic {
		contacts = e.deterministicMerge(candidates)
	}

	contacts = e.postProcess(contacts, maxResults)
	return &Result{
		Contacts: contacts,
		Quality:  GradeQuality(contacts),
		Outcome:  outcome,
	}
}

// deterministicMerge groups candidates by normalized name and resolves each
// field by source priority.
func (e *Engine) deterministicMerge(candidates []model.RawCandidate) []model.CanonicalContact {
	groups := make(map[string][]model.RawCandidate)
	var keys []string
	for _, c := range candidates {
		key := model.NormalizeName(c.Name)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], c)
	}

	out := make([]model.CanonicalContact, 0, len(keys))
	for _, key := range keys {
		out = append(out, e.mergeGroup(groups[key]))
	}
	return out
}

// mergeGroup collapses same-person candidates into one contact. Field values
// follow the priority table, confidence is the group maximum, attribution is
// the union of contributing sources.
func (e *Engine) mergeGroup(group []model.RawCandidate) model.CanonicalContact {
	best := group[0]
	for _, c := range group[1:] {
		if c.Confidence > best.Confidence ||
			(c.Confidence == best.Confidence && c.Source < best.Source) {
			best = c
		}
	}

	contact := model.CanonicalContact{
		Name:       best.Name,
		Confidence: model.ClampConfidence(best.Confidence),
	}

	contact.Email = pickField(group, e.priority.Email, func(c model.RawCandidate) string { return c.Email })
	contact.Phone = pickField(group, e.priority.Phone, func(c model.RawCandidate) string { return c.Phone })
	contact.ProfileURL = pickField(group, e.priority.ProfileURL, func(c model.RawCandidate) string { return c.ProfileURL })
	contact.Title = pickField(group, e.priority.Title, func(c model.RawCandidate) string { return c.Title })
	contact.Department = pickField(group, e.priority.Title, func(c model.RawCandidate) string { return c.Department })

	seen := make(map[string]bool)
	for _, c := range group {
		if c.Source != "" && !seen[c.Source] {
			seen[c.Source] = true
			contact.Sources = append(contact.Sources, c.Source)
		}
	}
	sort.Strings(contact.Sources)

	return contact
}

// pickField returns the field value from the highest-priority source that
// has one. Among candidates whose source is not in the table, higher
// confidence wins, then lexicographic source name.
func pickField(group []model.RawCandidate, priority []string, get func(model.RawCandidate) string) string {
	rank := func(source string) int {
		for i, s := range priority {
			if s == source {
				return i
			}
		}
		return len(priority)
	}

	bestVal := ""
	bestRank := len(priority) + 1
	bestConf := -1.0
	bestSource := ""
	for _, c := range group {
		v := strings.TrimSpace(get(c))
		if v == "" {
			continue
		}
		r := rank(c.Source)
		better := r < bestRank ||
			(r == bestRank && c.Confidence > bestConf) ||
			(r == bestRank && c.Confidence == bestConf && c.Source < bestSource)
		if better {
			bestVal, bestRank, bestConf, bestSource = v, r, c.Confidence, c.Source
		}
	}
	return bestVal
}

// postProcess re-groups by normalized name (so merging an already-merged
// list is a no-op), stamps the decision-maker flag, orders by usefulness,
// and truncates to maxResults.
func (e *Engine) postProcess(contacts []model.CanonicalContact, maxResults int) []model.CanonicalContact {
	grouped := make(map[string]model.CanonicalContact)
	var keys []string
	for _, c := range contacts {
		key := c.Key()
		if key == "" {
			continue
		}
		if existing, ok := grouped[key]; ok {
			grouped[key] = combineCanonical(existing, c)
		} else {
			keys = append(keys, key)
			grouped[key] = c
		}
	}

	out := make([]model.CanonicalContact, 0, len(keys))
	for _, key := range keys {
		c := grouped[key]
		c.DecisionMaker = model.IsDecisionMakerTitle(c.Title)
		c.Confidence = model.ClampConfidence(c.Confidence)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Email != "") != (b.Email != "") {
			return a.Email != ""
		}
		if a.DecisionMaker != b.DecisionMaker {
			return a.DecisionMaker
		}
		if (a.ProfileURL != "") != (b.ProfileURL != "") {
			return a.ProfileURL != ""
		}
		return a.Confidence > b.Confidence
	})

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// combineCanonical folds two same-key contacts together: first non-empty
// field wins, confidence is the max, attribution is the union.
func combineCanonical(a, b model.CanonicalContact) model.CanonicalContact {
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.Department == "" {
		a.Department = b.Department
	}
	if a.Email == "" {
		a.Email = b.Email
		a.EmailSource = b.EmailSource
	}
	if a.Phone == "" {
		a.Phone = b.Phone
		a.PhoneSource = b.PhoneSource
	}
	if a.ProfileURL == "" {
		a.ProfileURL = b.ProfileURL
	}
	if b.Confidence > a.Confidence {
		a.Confidence = b.Confidence
	}
	for _, s := range b.Sources {
		if !a.HasSource(s) {
			a.Sources = append(a.Sources, s)
		}
	}
	sort.Strings(a.Sources)
	return a
}

// GradeQuality grades a merged list by how many records carry an email and
// a profile URL.
func GradeQuality(contacts []model.CanonicalContact) model.MergeQuality {
	if len(contacts) == 0 {
		return model.QualityNoData
	}

	var withEmail, withProfile int
	for _, c := range contacts {
		if c.Email != "" {
			withEmail++
		}
		if c.ProfileURL != "" {
			withProfile++
		}
	}
	n := float64(len(contacts))
	emailRatio := float64(withEmail) / n
	profileRatio := float64(withProfile) / n

	switch {
	case emailRatio >= 0.7 && profileRatio >= 0.5:
		return model.QualityExcellent
	case emailRatio >= 0.5 || profileRatio >= 0.7:
		return model.QualityGood
	case emailRatio >= 0.3 || profileRatio >= 0.5:
		return model.QualityModerate
	default:
		return model.QualityLimited
	}
}
