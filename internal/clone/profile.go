package clone

// WebsiteProfile is the structured visual/DOM snapshot produced by scraping a
// URL. A profile is owned by the orchestrator run that requested it and is
// discarded once folded into the job result.
type WebsiteProfile struct {
	URL         string
	Screenshots Screenshots
	// StructureHTML is the cleaned DOM extract, capped in size by the scraper.
	StructureHTML string
	Hierarchy     Hierarchy
	DesignTokens  DesignTokens
	Layout        LayoutSummary
	Assets        AssetInventory
	Metadata      PageMetadata

	Success      bool
	ErrorMessage string
}

// Screenshots holds the base64 PNG captures taken during a scrape.
type Screenshots struct {
	// Primary is the full-page desktop capture.
	Primary string
	// Responsive maps breakpoint name (tablet, mobile) to a capture.
	Responsive map[string]string
}

// Region describes one semantic region detected on the page.
type Region struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	// Bounds is the bounding box in page coordinates.
	Bounds Bounds `json:"bounds"`
}

// Bounds is a rectangle in CSS pixels.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Hierarchy is the semantic page structure keyed by region.
type Hierarchy struct {
	Header     *Region  `json:"header,omitempty"`
	Navigation *Region  `json:"navigation,omitempty"`
	Hero       *Region  `json:"hero,omitempty"`
	Sections   []Region `json:"sections,omitempty"`
	Footer     *Region  `json:"footer,omitempty"`
}

// Empty reports whether no region was detected.
func (h Hierarchy) Empty() bool {
	return h.Header == nil && h.Navigation == nil && h.Hero == nil &&
		h.Footer == nil && len(h.Sections) == 0
}

// DesignTokens captures the page's reusable visual vocabulary.
type DesignTokens struct {
	// Palette is an ordered list of CSS color values, most prominent first.
	Palette    []string   `json:"palette"`
	Typography Typography `json:"typography"`
}

// Typography summarizes font usage.
type Typography struct {
	FontFamilies []string          `json:"font_families"`
	Headings     map[string]string `json:"headings,omitempty"`
	Body         map[string]string `json:"body,omitempty"`
}

// LayoutSummary captures structural patterns of the page.
type LayoutSummary struct {
	TagCounts     map[string]int `json:"tag_counts"`
	GridSelectors []string       `json:"grid_selectors,omitempty"`
	FlexSelectors []string       `json:"flex_selectors,omitempty"`
}

// AssetInventory lists resource URLs requested while rendering the page.
type AssetInventory struct {
	Images      []string `json:"images"`
	Fonts       []string `json:"fonts"`
	Scripts     []string `json:"scripts"`
	Stylesheets []string `json:"stylesheets"`
}

// Total returns the number of inventoried assets.
func (a AssetInventory) Total() int {
	return len(a.Images) + len(a.Fonts) + len(a.Scripts) + len(a.Stylesheets)
}

// PageMetadata holds document-level metadata.
type PageMetadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	OpenGraph   map[string]string `json:"open_graph,omitempty"`
}

// FailedProfile builds the canonical failure-shaped profile: every structural
// field zero, Success false, and a human-readable cause.
func FailedProfile(url, errMsg string) WebsiteProfile {
	return WebsiteProfile{
		URL:          url,
		Success:      false,
		ErrorMessage: errMsg,
	}
}

// Completeness scores the profile as the fraction of non-empty fields out of
// a fixed checklist: primary screenshot, structure HTML, hierarchy, palette,
// fonts, and asset inventory.
func (p WebsiteProfile) Completeness() float64 {
	checks := []bool{
		p.Screenshots.Primary != "",
		p.StructureHTML != "",
		!p.Hierarchy.Empty(),
		len(p.DesignTokens.Palette) > 0,
		len(p.DesignTokens.Typography.FontFamilies) > 0,
		p.Assets.Total() > 0,
	}
	filled := 0
	for _, ok := range checks {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(checks))
}
