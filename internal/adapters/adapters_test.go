package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venari/internal/models"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url      string
		expected models.Source
	}{
		{"https://boards-api.greenhouse.io/v1/boards/acme/jobs?content=true", models.SourceGreenhouse},
		{"https://api.greenhouse.io/v1/boards/acme/jobs", models.SourceGreenhouse},
		{"https://api.ashbyhq.com/posting-api/job-board/acme", models.SourceAshby},
		{"https://jobs.ashbyhq.com/acme/job-board", models.SourceAshby},
		{"https://example.com/jobs.json", models.SourceUnknown},
		{"https://greenhouse.io/about", models.SourceUnknown},
		{"://not-a-url", models.SourceUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectSource(tt.url), "url: %s", tt.url)
	}
}

func TestResolveSource_DeclaredWins(t *testing.T) {
	source := ResolveSource(models.SourceAshby, "https://boards-api.greenhouse.io/v1/boards/acme/jobs")
	assert.Equal(t, models.SourceAshby, source)

	source = ResolveSource(models.SourceUnknown, "https://boards-api.greenhouse.io/v1/boards/acme/jobs")
	assert.Equal(t, models.SourceGreenhouse, source)
}

func TestExtractGreenhouse(t *testing.T) {
	payload := []byte(`{
		"jobs": [
			{
				"id": 4567890123,
				"title": "Senior Backend Engineer",
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/4567890123",
				"updated_at": "2025-11-04T10:00:00-05:00",
				"first_published": "2025-11-01T09:00:00-05:00",
				"company_name": "Acme",
				"location": {"name": "New York, NY"},
				"metadata": [{"name": "Team", "value": "Platform", "value_type": "value_short_text"}],
				"content": "&lt;p&gt;Build things&lt;/p&gt;"
			}
		]
	}`)

	postings, err := ExtractPostings(models.SourceGreenhouse, payload)
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "4567890123", p.ID)
	assert.Equal(t, "Senior Backend Engineer", p.Title)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4567890123", p.AbsoluteURL)
	assert.Equal(t, "2025-11-04T10:00:00-05:00", p.UpdatedAt)
	assert.Equal(t, "2025-11-01T09:00:00-05:00", p.FirstPublished)
	assert.Equal(t, "New York, NY", p.LocationName)
	require.Len(t, p.Metadata, 1)
	assert.Equal(t, "Team", p.Metadata[0].Name)
}

func TestExtractGreenhouse_Malformed(t *testing.T) {
	_, err := ExtractPostings(models.SourceGreenhouse, []byte(`{"jobs": "nope"`))
	assert.Error(t, err)
}

func TestExtractAshby_JobsField(t *testing.T) {
	payload := []byte(`{
		"jobs": [
			{
				"id": "ash-1",
				"title": "Product Designer",
				"jobUrl": "https://jobs.ashbyhq.com/acme/ash-1",
				"applyUrl": "https://jobs.ashbyhq.com/acme/ash-1/application",
				"publishedAt": "2025-11-04T15:00:00+00:00",
				"location": "Remote - US",
				"secondaryLocations": [{"location": "Austin, TX"}, {"location": "  "}],
				"department": "Design",
				"employmentType": "FullTime",
				"isRemote": true,
				"descriptionHtml": "<p>Design things</p>"
			}
		]
	}`)

	postings, err := ExtractPostings(models.SourceAshby, payload)
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "ash-1", p.ID)
	assert.Equal(t, "https://jobs.ashbyhq.com/acme/ash-1", p.AbsoluteURL)
	assert.Equal(t, "https://jobs.ashbyhq.com/acme/ash-1/application", p.ApplyURL)
	// publishedAt feeds both freshness fields
	assert.Equal(t, "2025-11-04T15:00:00+00:00", p.UpdatedAt)
	assert.Equal(t, "2025-11-04T15:00:00+00:00", p.FirstPublished)
	assert.Equal(t, []string{"Austin, TX"}, p.SecondaryLocations)
	assert.True(t, p.IsRemote)

	names := make([]string, 0, len(p.Metadata))
	for _, m := range p.Metadata {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"department", "employment_type"}, names)
}

func TestExtractAshby_RootArray(t *testing.T) {
	payload := []byte(`[{"id": "a", "title": "One"}, {"id": "b", "title": "Two"}]`)

	postings, err := ExtractPostings(models.SourceAshby, payload)
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, "a", postings[0].ID)
	assert.Equal(t, "b", postings[1].ID)
}

func TestExtractAshby_JobBoardWrapper(t *testing.T) {
	payload := []byte(`{"jobBoard": {"jobs": [{"id": "nested", "title": "Nested"}]}}`)

	postings, err := ExtractPostings(models.SourceAshby, payload)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "nested", postings[0].ID)
}

func TestExtractAshby_EmptyObject(t *testing.T) {
	postings, err := ExtractPostings(models.SourceAshby, []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestExtractAshby_Malformed(t *testing.T) {
	_, err := ExtractPostings(models.SourceAshby, []byte(`not json`))
	assert.Error(t, err)
}

func TestCompanyKey(t *testing.T) {
	key := CompanyKey(models.SourceGreenhouse, "https://boards-api.greenhouse.io/v1/boards/AcmeCo/jobs", "feed_1")
	assert.Equal(t, "acmeco", key)

	key = CompanyKey(models.SourceAshby, "https://api.ashbyhq.com/posting-api/job-board/Acme-Labs", "feed_2")
	assert.Equal(t, "acme-labs", key)

	// No anchor segment: hostname plus feed id, slugified
	key = CompanyKey(models.SourceUnknown, "https://example.com/jobs.json", "feed_3")
	assert.Equal(t, "example-com-feed-3", key)
}

func TestCompanyKey_Deterministic(t *testing.T) {
	url := "https://boards-api.greenhouse.io/v1/boards/acme/jobs"
	first := CompanyKey(models.SourceGreenhouse, url, "feed_x")
	second := CompanyKey(models.SourceGreenhouse, url, "feed_y")
	assert.Equal(t, first, second, "company key must not depend on feed id when the anchor matches")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-labs", Slugify("Acme Labs"))
	assert.Equal(t, "a-b-c", Slugify("--a__b..c--"))
	assert.Equal(t, "", Slugify("!!!"))
}
