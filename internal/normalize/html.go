// -----------------------------------------------------------------------
// Content normalizer - entity decode, tracker strip, size cap
// -----------------------------------------------------------------------

package normalize

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContentMaxChars is the character ceiling for cleaned HTML bodies.
const DefaultContentMaxChars = 120000

// entityReplacer decodes the fixed entity set upstream boards escape job
// bodies with. Single pass; decoded output is never re-scanned.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
	"&rsquo;", "’",
	"&lsquo;", "‘",
	"&rdquo;", "”",
	"&ldquo;", "“",
	"&ndash;", "–",
	"&mdash;", "—",
	"&hellip;", "…",
)

// trackerDomains is the anchor href deny-list. Anchors pointing at these are
// unwrapped to their inner text.
var trackerDomains = []string{
	"click.appcast.io",
	"appcast.io",
	"doubleclick.net",
	"googleadservices.com",
	"click.jobvite.com",
	"bit.ly",
	"t.co",
	"lnkd.in",
}

// CleanHTML normalizes a raw HTML job body: decodes the fixed entity set,
// drops <img> tags, unwraps tracker-targeted anchors (inner text retained),
// and caps the result at maxChars characters. The output is stored verbatim;
// nothing downstream parses it again.
func CleanHTML(raw string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContentMaxChars
	}

	decoded := entityReplacer.Replace(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		return capChars(strings.TrimSpace(decoded), maxChars)
	}

	doc.Find("img").Remove()

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if isTrackerURL(href) {
			sel.ReplaceWithHtml(html.EscapeString(sel.Text()))
		}
	})

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		cleaned = decoded
	}

	return capChars(strings.TrimSpace(cleaned), maxChars)
}

func isTrackerURL(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range trackerDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// capChars truncates s to at most max characters without splitting a rune.
func capChars(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
