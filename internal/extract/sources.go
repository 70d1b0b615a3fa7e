package extract

import (
	"regexp"
	"strings"
)

var (
	urlPattern         = regexp.MustCompile(`https?://[^\s]+`)
	citationPattern    = regexp.MustCompile(`\([^)]*\d{4}[^)]*\)`)
	attributionPattern = regexp.MustCompile(`(?i)according to [^,.]+`)
)

// CountSources counts URLs, parenthetical year citations and "according to" attributions
func CountSources(text string) int {
	return len(urlPattern.FindAllStringIndex(text, -1)) +
		len(citationPattern.FindAllStringIndex(text, -1)) +
		len(attributionPattern.FindAllStringIndex(text, -1))
}

// ExtractURLs returns the distinct URLs cited in text, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, u := range matches {
		u = strings.TrimRight(u, ".,;:!?)\"'")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		unique = append(unique, u)
	}
	return unique
}
