package pipeline

import "strings"

// static classification tables used by the free filtering stages

// qualityIndicators mark content with educational or analytical intent
var qualityIndicators = []string{
	"tutorial", "guide", "course", "explained", "walkthrough", "deep dive",
	"masterclass", "introduction", "best practices", "case study", "lecture",
	"conference", "keynote", "how to", "crash course", "fundamentals",
	"documentary", "analysis", "review", "workshop",
}

// professionalTerms mark content from professional and technical domains
var professionalTerms = []string{
	"engineering", "architecture", "programming", "development", "framework",
	"algorithm", "research", "science", "data", "security", "cloud", "devops",
	"machine learning", "api", "database", "performance", "testing",
	"kubernetes", "distributed", "infrastructure", "compiler", "protocol",
}

// irrelevantKeywords disqualify content regardless of other signals
var irrelevantKeywords = []string{
	"clickbait", "giveaway", "unboxing", "prank", "gone wrong", "reaction",
	"asmr", "gossip", "drama alert", "you won't believe", "shocking truth",
	"get rich quick", "lottery", "tier list", "24 hour challenge",
}

// containsAny reports whether lowercased text contains any of the terms
func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// countMatches counts how many of the terms appear in lowercased text
func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

// itemText builds the lowercased search text for matching
func itemText(title, description string) string {
	return strings.ToLower(title + " " + description)
}

// clampScore keeps a score within [0,1]
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
