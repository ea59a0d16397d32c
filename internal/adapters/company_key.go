package adapters

import (
	"net/url"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// CompanyKey derives the stable company slug for a feed. For greenhouse URLs
// it is the path segment after "boards"; for ashby, after "job-board". When
// neither applies, the hostname plus feed id is slugified. The function is
// total and deterministic: identical inputs always yield identical keys.
func CompanyKey(source models.Source, feedURL, feedID string) string {
	u, err := url.Parse(feedURL)
	if err == nil {
		segments := splitPath(u.EscapedPath())

		var anchor string
		switch source {
		case models.SourceGreenhouse:
			anchor = "boards"
		case models.SourceAshby:
			anchor = "job-board"
		}

		if anchor != "" {
			for i, seg := range segments {
				if seg == anchor && i+1 < len(segments) {
					if key := Slugify(segments[i+1]); key != "" {
						return key
					}
				}
			}
		}

		if host := u.Hostname(); host != "" {
			return Slugify(host + "-" + feedID)
		}
	}

	return Slugify(feedID)
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Slugify lowercases the input and collapses runs of non-alphanumeric
// characters into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
