// -----------------------------------------------------------------------
// Filter policy - process-wide immutable allow/exclude tables
// -----------------------------------------------------------------------

package filter

// Reason classifies the outcome of the filter pipeline for one posting.
type Reason string

const (
	ReasonKeep          Reason = "keep"
	ReasonNoTimestamp   Reason = "no_timestamp"
	ReasonTooOld        Reason = "too_old"
	ReasonWrongLocation Reason = "wrong_location"
)

// Policy holds the location allow-lists and the remote exclude-list. Built
// once at process init and never mutated.
type Policy struct {
	stateCodes        map[string]bool
	majorCities       []string
	usKeywords        []string
	usRemotePhrases   []string
	excludedCountries []string
}

var defaultPolicy = NewPolicy()

// Default returns the process-wide policy table.
func Default() *Policy {
	return defaultPolicy
}

// NewPolicy builds the constant policy table.
func NewPolicy() *Policy {
	return &Policy{
		stateCodes:        usStateCodes(),
		majorCities:       majorUSCities,
		usKeywords:        usKeywords,
		usRemotePhrases:   usRemotePhrases,
		excludedCountries: excludedCountries,
	}
}

// IsStateCode reports whether a token is a US state (or DC) two-letter code.
func (p *Policy) IsStateCode(token string) bool {
	return p.stateCodes[token]
}

func usStateCodes() map[string]bool {
	codes := []string{
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
		"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
		"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
		"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
		"DC",
	}
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// majorUSCities are matched as substrings with non-alphanumeric boundaries.
var majorUSCities = []string{
	"new york", "san francisco", "seattle", "austin", "boston",
	"chicago", "los angeles", "denver", "atlanta", "miami",
	"dallas", "houston", "portland", "san diego", "san jose",
	"philadelphia", "phoenix", "nashville", "salt lake city",
	"minneapolis", "raleigh", "durham", "charlotte", "columbus",
	"pittsburgh", "baltimore", "detroit", "brooklyn", "oakland",
	"palo alto", "mountain view", "sunnyvale", "santa clara",
	"redwood city", "menlo park", "boulder", "washington",
}

// usKeywords are matched with non-alphanumeric boundaries, like the city
// list, so "usa" never reads out of a word like "Lusaka".
var usKeywords = []string{
	"united states",
	"usa",
	"u.s.",
	"us only",
	"us-based",
	"anywhere in the us",
	"north america",
}

// usRemotePhrases short-circuit the remote exclude-list.
var usRemotePhrases = []string{
	"us-remote",
	"remote us",
	"remote - us",
	"remote, us",
	"remote (us",
	"remote in the us",
	"remote united states",
	"remote - united states",
	"usa remote",
	"remote usa",
	"remote - usa",
}

// excludedCountries reject "remote" postings pinned to a non-US region.
var excludedCountries = []string{
	"germany", "united kingdom", "uk)", "- uk", "england", "canada",
	"india", "france", "spain", "poland", "netherlands", "australia",
	"brazil", "mexico", "japan", "china", "singapore", "ireland",
	"israel", "portugal", "romania", "ukraine", "argentina",
	"colombia", "philippines", "pakistan", "nigeria", "kenya",
	"egypt", "italy", "sweden", "norway", "denmark", "finland",
	"switzerland", "austria", "belgium", "czech", "hungary",
	"greece", "turkey", "vietnam", "indonesia", "malaysia",
	"thailand", "south korea", "new zealand", "south africa",
	"europe", "emea", "apac", "latam",
}
