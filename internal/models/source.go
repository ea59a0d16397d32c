package models

// Source identifies the upstream job-board variant a feed points at.
type Source string

const (
	SourceGreenhouse Source = "greenhouse"
	SourceAshby      Source = "ashby"
	SourceUnknown    Source = "unknown"
)

// Valid reports whether the source is a known board variant.
func (s Source) Valid() bool {
	return s == SourceGreenhouse || s == SourceAshby
}
