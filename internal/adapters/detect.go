// -----------------------------------------------------------------------
// Feed adapters - translate upstream board payloads into uniform postings
// -----------------------------------------------------------------------

package adapters

import (
	"net/url"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// DetectSource identifies the board variant from the feed URL. Pure function
// on URL host and path prefix; unknown hosts yield SourceUnknown.
func DetectSource(rawURL string) models.Source {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.SourceUnknown
	}

	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()

	switch {
	case (host == "boards-api.greenhouse.io" || strings.HasSuffix(host, ".greenhouse.io")) && strings.Contains(path, "/boards/"):
		return models.SourceGreenhouse
	case strings.HasSuffix(host, "ashbyhq.com") && strings.Contains(path, "/job-board"):
		return models.SourceAshby
	}

	return models.SourceUnknown
}

// ResolveSource prefers a feed's declared source tag over URL detection.
func ResolveSource(declared models.Source, feedURL string) models.Source {
	if declared.Valid() {
		return declared
	}
	return DetectSource(feedURL)
}
