// Package directions answers outdoor navigation queries through an
// external directions provider. It parses free-text queries into
// origin/destination/mode and fetches the route over HTTP.
package directions

import (
	"regexp"
	"strings"
)

// Travel modes accepted by the provider.
const (
	ModeDriving   = "driving"
	ModeWalking   = "walking"
	ModeBicycling = "bicycling"
	ModeTransit   = "transit"
)

// modeWords maps trigger words to a travel mode. Checked in order; the
// first mode with a matching word wins, so driving shadows the rest.
var modeWords = []struct {
	mode  string
	words []string
}{
	{ModeDriving, []string{"驾车", "开车", "drive", "driving"}},
	{ModeWalking, []string{"步行", "走路", "walk", "walking"}},
	{ModeBicycling, []string{"骑行", "自行车", "单车", "bike", "bicycle", "bicycling"}},
	{ModeTransit, []string{"公交", "地铁", "巴士", "公共交通", "transit", "metro", "bus"}},
}

var (
	whitespace = regexp.MustCompile(`\s+`)

	// "from A to B" style queries, Chinese and English.
	pairPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:从|由)\s*(.+?)\s*(?:到|至|去|->|→)\s*(.+)`),
		regexp.MustCompile(`(?i)(?:from)\s*(.+?)\s*(?:to)\s*(.+)`),
	}

	// "navigate to B" style queries.
	singlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:导航到|导航至|前往|去往|去|到)\s*(.+)`),
		regexp.MustCompile(`(?i)(?:navigate to|go to|directions to)\s*(.+)`),
	}

	// Trailing question words stripped off destinations.
	destSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`\s*怎么走\??$`),
		regexp.MustCompile(`\s*怎么去\??$`),
		regexp.MustCompile(`\s*怎么到\??$`),
		regexp.MustCompile(`\s*多远\??$`),
		regexp.MustCompile(`\s*多长时间\??$`),
		regexp.MustCompile(`\s*要多久\??$`),
		regexp.MustCompile(`\s*怎么样\??$`),
		regexp.MustCompile(`\s*如何\??$`),
		regexp.MustCompile(`\s*吗\??$`),
		regexp.MustCompile(`\s*呢\??$`),
		regexp.MustCompile(`\s*\?$`),
		regexp.MustCompile(`\s*？$`),
	}

	fallbackSplit = regexp.MustCompile(`(?:导航到|导航至|前往|去往|去|到)`)
)

// fallbackKeywords mark a sentence as a navigation query even when no
// pattern matched cleanly.
var fallbackKeywords = []string{"导航", "路线", "去", "到", "怎么走", "怎么去"}

// ParsedQuery is the structured form of a free-text navigation query.
// Origin is empty when the query names only a destination.
type ParsedQuery struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Mode        string `json:"mode"`
}

// NormalizeText trims the query and collapses runs of whitespace.
func NormalizeText(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// DetectMode guesses the travel mode from the query text. Unmatched
// queries default to driving.
func DetectMode(s string) string {
	t := strings.ToLower(s)
	for _, mw := range modeWords {
		for _, w := range mw.words {
			if strings.Contains(s, w) || strings.Contains(t, w) {
				return mw.mode
			}
		}
	}
	return ModeDriving
}

// cleanDestination strips trailing question words like "怎么走" off a
// captured destination.
func cleanDestination(dest string) string {
	d := strings.TrimSpace(dest)
	for _, suffix := range destSuffixes {
		d = suffix.ReplaceAllString(d, "")
	}
	return strings.TrimSpace(d)
}

// ParseQuery extracts origin, destination and mode from free text.
// Supported shapes: "从 A 到 B", "from A to B", "导航到 B",
// "navigate to B". Destination stays empty when nothing parses.
func ParseQuery(s string) ParsedQuery {
	m := NormalizeText(s)
	q := ParsedQuery{Mode: DetectMode(m)}

	for _, pat := range pairPatterns {
		r := pat.FindStringSubmatch(m)
		if r == nil {
			continue
		}
		o := strings.TrimSpace(r[1])
		d := cleanDestination(r[2])
		if o != "" && d != "" {
			q.Origin = o
			q.Destination = d
			return q
		}
	}

	for _, pat := range singlePatterns {
		r := pat.FindStringSubmatch(m)
		if r == nil {
			continue
		}
		if d := cleanDestination(r[1]); d != "" {
			q.Destination = d
			return q
		}
	}

	for _, kw := range fallbackKeywords {
		if !strings.Contains(m, kw) {
			continue
		}
		parts := fallbackSplit.Split(m, -1)
		if len(parts) > 1 {
			if d := cleanDestination(parts[len(parts)-1]); d != "" {
				q.Destination = d
			}
		}
		break
	}
	return q
}
