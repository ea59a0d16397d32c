package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML_DecodesEntities(t *testing.T) {
	out := CleanHTML("<p>Don&rsquo;t miss&nbsp;this</p>", 0)
	assert.Equal(t, "<p>Don’t miss this</p>", out)

	// Escaped markup becomes real markup after the decode pass.
	out = CleanHTML("&lt;p&gt;Benefits&lt;/p&gt;", 0)
	assert.Equal(t, "<p>Benefits</p>", out)
}

func TestCleanHTML_SinglePassDecode(t *testing.T) {
	// Double-escaped input decodes exactly one level.
	out := CleanHTML("&amp;lt;script&amp;gt;", 0)
	assert.Equal(t, "&lt;script&gt;", out)
}

func TestCleanHTML_RemovesImages(t *testing.T) {
	out := CleanHTML(`<p>Before<img src="https://cdn.example.com/pixel.png">After</p>`, 0)
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "Before")
	assert.Contains(t, out, "After")
}

func TestCleanHTML_UnwrapsTrackerAnchors(t *testing.T) {
	out := CleanHTML(`<p>Apply via <a href="https://click.appcast.io/track/abc">this link</a> today</p>`, 0)
	assert.NotContains(t, out, "click.appcast.io")
	assert.NotContains(t, out, "<a ")
	assert.Contains(t, out, "this link")
}

func TestCleanHTML_TrackerSubdomainMatches(t *testing.T) {
	out := CleanHTML(`<a href="https://eu.click.appcast.io/x">inner</a>`, 0)
	assert.NotContains(t, out, "appcast")
	assert.Contains(t, out, "inner")
}

func TestCleanHTML_KeepsOrdinaryAnchors(t *testing.T) {
	out := CleanHTML(`<a href="https://example.com/careers">careers</a>`, 0)
	assert.Contains(t, out, `href="https://example.com/careers"`)
}

func TestCleanHTML_CapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	out := CleanHTML(long, 100)
	assert.Len(t, out, 100)
}

func TestCleanHTML_CapDoesNotSplitRunes(t *testing.T) {
	out := CleanHTML(strings.Repeat("é", 50), 10)
	assert.Equal(t, strings.Repeat("é", 10), out)
}

func TestCleanHTML_EmptyInput(t *testing.T) {
	assert.Equal(t, "", CleanHTML("", 0))
}
