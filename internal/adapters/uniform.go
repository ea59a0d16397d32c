package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/venari/internal/models"
)

// RawMetadataEntry is the upstream metadata shape {name, value, value_type}.
// Value is kept raw because upstream types vary per entry.
type RawMetadataEntry struct {
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	ValueType string          `json:"value_type,omitempty"`
}

// UniformPosting is the internal posting shape all sources are mapped onto.
// The greenhouse payload is the identity mapping; other sources are
// translated into this shape.
type UniformPosting struct {
	Source             models.Source
	ID                 string
	Title              string
	AbsoluteURL        string
	ApplyURL           string
	UpdatedAt          string // ISO timestamp as received
	FirstPublished     string // ISO timestamp as received
	CompanyName        string
	LocationName       string
	SecondaryLocations []string
	IsRemote           bool
	Metadata           []RawMetadataEntry
	Content            string // raw HTML body
}

// ExtractPostings parses a raw upstream document into uniform postings.
func ExtractPostings(source models.Source, payload []byte) ([]UniformPosting, error) {
	switch source {
	case models.SourceGreenhouse:
		return extractGreenhouse(payload)
	case models.SourceAshby:
		return extractAshby(payload)
	}
	return nil, fmt.Errorf("unsupported source: %s", source)
}
