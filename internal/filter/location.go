package filter

import (
	"strings"
	"unicode"

	"github.com/ternarybob/venari/internal/adapters"
)

// LocationResult is the outcome of the location rule for one posting.
type LocationResult struct {
	Keep       bool
	Rule       string // which allow rule matched, for diagnostics
	StateCodes []string
}

// EvaluateLocation applies the location rules to a posting. Upstream
// location strings are free-form ("New York, NY; Remote - US"), so every
// location string on the posting is evaluated and any match keeps it.
//
// Precedence: US-remote phrasing short-circuits everything; concrete US
// evidence (keyword, city, state code) keeps the posting regardless of the
// exclude-list; remote-ness (the isRemote flag or a "remote" token) keeps it
// only when no excluded-country substring appears anywhere in the text.
func EvaluateLocation(posting adapters.UniformPosting, policy *Policy) LocationResult {
	locations := make([]string, 0, 1+len(posting.SecondaryLocations))
	if posting.LocationName != "" {
		locations = append(locations, posting.LocationName)
	}
	locations = append(locations, posting.SecondaryLocations...)

	combined := strings.ToLower(strings.Join(locations, "; "))

	result := LocationResult{
		StateCodes: ExtractStateCodes(policy, locations...),
	}

	for _, phrase := range policy.usRemotePhrases {
		if strings.Contains(combined, phrase) {
			result.Keep = true
			result.Rule = "us_remote"
			return result
		}
	}

	for _, keyword := range policy.usKeywords {
		if containsBounded(combined, keyword) {
			result.Keep = true
			result.Rule = "keyword"
			return result
		}
	}

	for _, city := range policy.majorCities {
		if containsBounded(combined, city) {
			result.Keep = true
			result.Rule = "city"
			return result
		}
	}

	if len(result.StateCodes) > 0 {
		result.Keep = true
		result.Rule = "state_code"
		return result
	}

	excluded := false
	for _, country := range policy.excludedCountries {
		if strings.Contains(combined, country) {
			excluded = true
			break
		}
	}

	if !excluded && (posting.IsRemote || hasToken(combined, "remote")) {
		result.Keep = true
		if posting.IsRemote {
			result.Rule = "remote_flag"
		} else {
			result.Rule = "remote_permissive"
		}
		return result
	}

	return result
}

// ExtractStateCodes collects every standalone two-letter US state token from
// the location strings. Tokens must be uppercase in the original text so
// that words like "in" or "or" never read as Indiana or Oregon.
// "Washington, D.C." is recognized as DC.
func ExtractStateCodes(policy *Policy, locations ...string) []string {
	seen := make(map[string]bool)
	var codes []string

	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	for _, loc := range locations {
		for _, token := range tokenize(loc) {
			if len(token) == 2 && token == strings.ToUpper(token) && policy.IsStateCode(token) {
				add(token)
			}
		}

		lower := strings.ToLower(loc)
		if strings.Contains(lower, "washington, d.c.") || strings.Contains(lower, "washington d.c.") || strings.Contains(lower, "washington dc") {
			add("DC")
		}
	}

	return codes
}

// tokenize splits on any non-alphanumeric rune.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsBounded reports whether needle occurs in haystack delimited by
// non-alphanumeric characters (or the string edges) on both sides.
func containsBounded(haystack, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start

		leftOK := idx == 0 || !isAlphanumeric(rune(haystack[idx-1]))
		end := idx + len(needle)
		rightOK := end == len(haystack) || !isAlphanumeric(rune(haystack[end]))
		if leftOK && rightOK {
			return true
		}

		start = idx + 1
		if start >= len(haystack) {
			return false
		}
	}
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasToken(s, token string) bool {
	for _, t := range tokenize(s) {
		if t == token {
			return true
		}
	}
	return false
}
