package router

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/victoruno/victoruno/internal/capability"
)

// Intent is the resolved handler for a request. Fixed closed set.
type Intent string

// Supported intents.
const (
	IntentChat     Intent = "chat"
	IntentResearch Intent = "research"
	IntentDevelop  Intent = "develop"
	IntentOptimize Intent = "optimize"
	IntentWeather  Intent = "weather"
	IntentDocument Intent = "document"
)

// Keywords holds the lexical keyword sets for the scored intents. The sets
// are configuration, not behavior: exact thresholds are tunable and ties
// always resolve to chat.
type Keywords struct {
	Research []string
	Develop  []string
	Optimize []string
}

// weatherPattern spots a weather-flavored utterance. A location must also be
// extractable for the weather intent to win; "nice weather today" stays chat.
var weatherPattern = regexp.MustCompile(`(?i)\b(weather|forecast|temperature)\b`)

// locationPattern captures the location phrase after "in"/"for"/"at".
var locationPattern = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+([A-Za-zÀ-ÿ][A-Za-zÀ-ÿ .'-]*?)(?:\s*[?!.,]|$)`)

// resolveIntent classifies an utterance. Deterministic: identical
// (utterance, attachment type) input always resolves the same way.
//
// Precedence:
//  1. supported document attachment wins outright
//  2. weather phrasing with an extractable location
//  3. highest lexical keyword score among research/develop/optimize
//  4. everything else, including ties and zero scores, is chat
func resolveIntent(utterance, attachmentPath string, kw Keywords) Intent {
	if attachmentPath != "" && capability.SupportedFormat(filepath.Ext(attachmentPath)) {
		return IntentDocument
	}

	if weatherPattern.MatchString(utterance) && extractLocation(utterance) != "" {
		return IntentWeather
	}

	lower := strings.ToLower(utterance)
	research := keywordScore(lower, kw.Research)
	develop := keywordScore(lower, kw.Develop)
	optimize := keywordScore(lower, kw.Optimize)

	best, winner := 0, IntentChat
	for _, c := range []struct {
		score  int
		intent Intent
	}{
		{research, IntentResearch},
		{develop, IntentDevelop},
		{optimize, IntentOptimize},
	} {
		switch {
		case c.score > best:
			best, winner = c.score, c.intent
		case c.score == best && c.score > 0:
			// Tie between specialized intents: fall back to chat.
			winner = IntentChat
		}
	}
	return winner
}

// keywordScore counts how many keywords occur in the lowercased utterance.
func keywordScore(lower string, keywords []string) int {
	score := 0
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			score++
		}
	}
	return score
}

// extractLocation pulls the location phrase out of a weather utterance.
// Returns "" when no location is present.
func extractLocation(utterance string) string {
	m := locationPattern.FindStringSubmatch(utterance)
	if m == nil {
		return ""
	}
	loc := strings.TrimSpace(m[1])
	// "in the morning" style phrases are time qualifiers, not places.
	for _, stop := range []string{"the", "a", "an", "my", "this", "that", "general"} {
		if strings.EqualFold(loc, stop) || strings.HasPrefix(strings.ToLower(loc), stop+" ") {
			return ""
		}
	}
	return loc
}
