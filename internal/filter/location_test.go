package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/venari/internal/adapters"
)

func evalLocation(primary string, secondary []string, isRemote bool) LocationResult {
	return EvaluateLocation(adapters.UniformPosting{
		LocationName:       primary,
		SecondaryLocations: secondary,
		IsRemote:           isRemote,
	}, Default())
}

func TestEvaluateLocation_USRemotePhrase(t *testing.T) {
	for _, loc := range []string{"Remote - US", "Remote (USA)", "US Remote", "Remote, United States"} {
		result := evalLocation(loc, nil, false)
		assert.True(t, result.Keep, "location: %s", loc)
	}
}

func TestEvaluateLocation_USKeyword(t *testing.T) {
	for _, loc := range []string{"United States", "Anywhere (USA)", "USA"} {
		result := evalLocation(loc, nil, false)
		assert.True(t, result.Keep, "location: %s", loc)
		assert.Equal(t, "keyword", result.Rule)
	}
}

func TestEvaluateLocation_KeywordRequiresBoundary(t *testing.T) {
	// "usa" inside a longer word is not US evidence.
	for _, loc := range []string{"Lusaka, Zambia", "Busan Office"} {
		result := evalLocation(loc, nil, false)
		assert.False(t, result.Keep, "location: %s", loc)
	}
}

func TestEvaluateLocation_MajorCity(t *testing.T) {
	result := evalLocation("Chicago", nil, false)
	assert.True(t, result.Keep)
	assert.Equal(t, "city", result.Rule)
}

func TestEvaluateLocation_CityRequiresBoundary(t *testing.T) {
	// "Austintown" must not match the city "austin".
	result := evalLocation("Austintown Office", nil, false)
	assert.False(t, result.Keep)
}

func TestEvaluateLocation_StateCode(t *testing.T) {
	result := evalLocation("Springfield, IL", nil, false)
	assert.True(t, result.Keep)
	assert.Equal(t, "state_code", result.Rule)
	assert.Equal(t, []string{"IL"}, result.StateCodes)
}

func TestEvaluateLocation_LowercaseTokenNotAState(t *testing.T) {
	// "in" and "or" are English words here, not Indiana or Oregon.
	result := evalLocation("Based in London or Paris", nil, false)
	assert.False(t, result.Keep)
	assert.Empty(t, result.StateCodes)
}

func TestEvaluateLocation_RemoteFlagExcludedCountry(t *testing.T) {
	// Remote-ness never overrides an excluded-country mention.
	result := evalLocation("Remote - Germany", nil, true)
	assert.False(t, result.Keep)
}

func TestEvaluateLocation_RemoteFlagNoCountry(t *testing.T) {
	result := evalLocation("Remote", nil, true)
	assert.True(t, result.Keep)
	assert.Equal(t, "remote_flag", result.Rule)
}

func TestEvaluateLocation_RemoteTokenWithoutFlag(t *testing.T) {
	result := evalLocation("Remote", nil, false)
	assert.True(t, result.Keep)
	assert.Equal(t, "remote_permissive", result.Rule)
}

func TestEvaluateLocation_ConcreteEvidenceBeatsExclusion(t *testing.T) {
	// A posting listing both an excluded country and a US location keeps.
	result := evalLocation("Berlin, Germany", []string{"New York, NY"}, false)
	assert.True(t, result.Keep)
}

func TestEvaluateLocation_SecondaryLocationsConsidered(t *testing.T) {
	result := evalLocation("Hybrid", []string{"Denver, CO"}, false)
	assert.True(t, result.Keep)
	assert.Equal(t, []string{"CO"}, result.StateCodes)
}

func TestEvaluateLocation_NoSignal(t *testing.T) {
	result := evalLocation("Main Office", nil, false)
	assert.False(t, result.Keep)
}

func TestExtractStateCodes(t *testing.T) {
	codes := ExtractStateCodes(Default(), "New York, NY; Boston, MA", "Portland, OR")
	assert.Equal(t, []string{"NY", "MA", "OR"}, codes)
}

func TestExtractStateCodes_Deduplicates(t *testing.T) {
	codes := ExtractStateCodes(Default(), "Dallas, TX", "Houston, TX")
	assert.Equal(t, []string{"TX"}, codes)
}

func TestExtractStateCodes_WashingtonDC(t *testing.T) {
	codes := ExtractStateCodes(Default(), "Washington, D.C.")
	assert.Equal(t, []string{"DC"}, codes)
}

func TestExtractStateCodes_UppercaseOnly(t *testing.T) {
	codes := ExtractStateCodes(Default(), "somewhere in the hills")
	assert.Empty(t, codes)
}
