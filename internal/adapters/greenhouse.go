package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/venari/internal/models"
)

// greenhousePosting mirrors one entry of the greenhouse board API response.
type greenhousePosting struct {
	ID             json.Number        `json:"id"`
	Title          string             `json:"title"`
	AbsoluteURL    string             `json:"absolute_url"`
	UpdatedAt      string             `json:"updated_at"`
	FirstPublished string             `json:"first_published"`
	CompanyName    string             `json:"company_name"`
	Location       greenhouseLocation `json:"location"`
	Metadata       []RawMetadataEntry `json:"metadata"`
	Content        string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhousePosting `json:"jobs"`
}

// extractGreenhouse reads the jobs[] array of a greenhouse board document.
func extractGreenhouse(payload []byte) ([]UniformPosting, error) {
	var resp greenhouseResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("malformed greenhouse payload: %w", err)
	}

	postings := make([]UniformPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		postings = append(postings, UniformPosting{
			Source:         models.SourceGreenhouse,
			ID:             job.ID.String(),
			Title:          job.Title,
			AbsoluteURL:    job.AbsoluteURL,
			UpdatedAt:      job.UpdatedAt,
			FirstPublished: job.FirstPublished,
			CompanyName:    job.CompanyName,
			LocationName:   job.Location.Name,
			Metadata:       job.Metadata,
			Content:        job.Content,
		})
	}

	return postings, nil
}
