package adapters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// ashbyPosting mirrors one entry of the AshbyHQ posting API response.
type ashbyPosting struct {
	ID                 string                   `json:"id"`
	Title              string                   `json:"title"`
	JobURL             string                   `json:"jobUrl"`
	ApplyURL           string                   `json:"applyUrl"`
	PublishedAt        string                   `json:"publishedAt"`
	Location           string                   `json:"location"`
	SecondaryLocations []ashbySecondaryLocation `json:"secondaryLocations"`
	Department         string                   `json:"department"`
	Team               string                   `json:"team"`
	EmploymentType     string                   `json:"employmentType"`
	DescriptionHTML    string                   `json:"descriptionHtml"`
	IsRemote           bool                     `json:"isRemote"`
}

type ashbySecondaryLocation struct {
	Location string `json:"location"`
}

type ashbyResponse struct {
	Jobs     []ashbyPosting `json:"jobs"`
	JobBoard *struct {
		Jobs []ashbyPosting `json:"jobs"`
	} `json:"jobBoard"`
}

// extractAshby reads jobs[] from an ashby document, falling back to a root
// array, then to jobBoard.jobs[].
func extractAshby(payload []byte) ([]UniformPosting, error) {
	var resp ashbyResponse
	if err := json.Unmarshal(payload, &resp); err == nil {
		if len(resp.Jobs) > 0 {
			return mapAshby(resp.Jobs), nil
		}
		if resp.JobBoard != nil && len(resp.JobBoard.Jobs) > 0 {
			return mapAshby(resp.JobBoard.Jobs), nil
		}
	}

	var rootJobs []ashbyPosting
	if err := json.Unmarshal(payload, &rootJobs); err == nil {
		return mapAshby(rootJobs), nil
	}

	// An empty but well-formed object yields zero postings, not an error.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("malformed ashby payload: %w", err)
	}
	return nil, nil
}

// mapAshby translates ashby postings into the uniform shape: jobUrl becomes
// the canonical URL, publishedAt feeds both freshness fields, and
// department/team/employmentType land in metadata.
func mapAshby(jobs []ashbyPosting) []UniformPosting {
	postings := make([]UniformPosting, 0, len(jobs))
	for _, job := range jobs {
		uniform := UniformPosting{
			Source:         models.SourceAshby,
			ID:             job.ID,
			Title:          job.Title,
			AbsoluteURL:    job.JobURL,
			ApplyURL:       job.ApplyURL,
			UpdatedAt:      job.PublishedAt,
			FirstPublished: job.PublishedAt,
			LocationName:   job.Location,
			IsRemote:       job.IsRemote,
			Content:        job.DescriptionHTML,
		}

		for _, sec := range job.SecondaryLocations {
			if loc := strings.TrimSpace(sec.Location); loc != "" {
				uniform.SecondaryLocations = append(uniform.SecondaryLocations, loc)
			}
		}

		uniform.Metadata = appendStringMetadata(uniform.Metadata, "department", job.Department)
		uniform.Metadata = appendStringMetadata(uniform.Metadata, "team", job.Team)
		uniform.Metadata = appendStringMetadata(uniform.Metadata, "employment_type", job.EmploymentType)

		postings = append(postings, uniform)
	}
	return postings
}

func appendStringMetadata(entries []RawMetadataEntry, name, value string) []RawMetadataEntry {
	value = strings.TrimSpace(value)
	if value == "" {
		return entries
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return entries
	}
	return append(entries, RawMetadataEntry{Name: name, Value: raw, ValueType: "value_short_text"})
}
