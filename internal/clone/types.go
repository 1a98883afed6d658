// Package clone defines core types shared across subsystems.
package clone

import "time"

// JobStatus represents the lifecycle state of a clone job.
type JobStatus string

// Job status values held in the job store.
const (
	StatusPending    JobStatus = "pending"
	StatusScraping   JobStatus = "scraping"
	StatusProcessing JobStatus = "processing"
	StatusGenerating JobStatus = "generating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an absorbing state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents the metadata tracked for each submitted clone request.
type Job struct {
	ID           string      `json:"job_id"`
	URL          string      `json:"url"`
	Status       JobStatus   `json:"status"`
	Progress     int         `json:"progress"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Result       *ResultData `json:"result_data,omitempty"`
}

// ResultData is the immutable payload written once at the completed
// transition.
type ResultData struct {
	OriginalURL   string        `json:"original_url"`
	GeneratedHTML string        `json:"generated_html"`
	Metadata      CloneMetadata `json:"metadata"`
}

// CloneMetadata is the digest derived from a WebsiteProfile and attached to
// the result payload. The profile itself is discarded after the fold-in.
type CloneMetadata struct {
	Palette           []string `json:"color_palette"`
	Fonts             []string `json:"fonts_found"`
	HeadingFont       string   `json:"heading_font,omitempty"`
	BodyFont          string   `json:"body_font,omitempty"`
	HasHeader         bool     `json:"has_header"`
	HasNavigation     bool     `json:"has_navigation"`
	HasHero           bool     `json:"has_hero"`
	ContentSections   int      `json:"content_sections"`
	HasGridLayout     bool     `json:"has_grid_layout"`
	HasFlexLayout     bool     `json:"has_flex_layout"`
	ImageCount        int      `json:"image_count"`
	StylesheetCount   int      `json:"stylesheet_count"`
	ScriptCount       int      `json:"script_count"`
	FontAssetCount    int      `json:"font_asset_count"`
	Breakpoints       []string `json:"breakpoints_captured"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	CompletenessScore float64  `json:"completeness_score"`
}
