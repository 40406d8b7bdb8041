package model

import "strings"

// NormalizeName lowercases a person name, trims it, and collapses internal
// whitespace runs to single spaces. The result is the grouping key used by
// deduplication; an empty result means the candidate has no usable name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// decisionMakerKeywords mark titles that indicate purchasing authority.
var decisionMakerKeywords = []string{
	"ceo", "chief", "cfo", "cto", "coo", "cmo", "cio",
	"founder", "co-founder", "owner", "partner", "principal",
	"president", "vice president", "vp ", "svp", "evp",
	"director", "head of", "managing",
}

// IsDecisionMakerTitle reports whether a job title suggests the person is a
// decision maker. Matching is case-insensitive and keyword based.
func IsDecisionMakerTitle(title string) bool {
	t := " " + strings.ToLower(strings.TrimSpace(title)) + " "
	for _, kw := range decisionMakerKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
