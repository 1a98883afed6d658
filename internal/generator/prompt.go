package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"sitecloner/internal/clone"
)

const systemPrompt = `You are an expert web developer specializing in visual website recreation.
Generate a pixel-accurate HTML recreation from the visual analysis data you are given.
Principles: use the visual hierarchy for semantic structure, apply the design tokens
for colors and typography, implement the layout patterns with CSS grid/flexbox, and
make the page responsive with media queries for the captured breakpoints.
Output a complete HTML document with DOCTYPE and all CSS inline.
Return ONLY the HTML code, no explanations or markdown formatting.`

const (
	maxHierarchyChars = 2000
	maxTokensChars    = 1500
	maxLayoutChars    = 1000
	maxStructureChars = 2000
)

// buildPrompt assembles the user prompt from the profile's sections, skipping
// empty ones and truncating the verbose blocks.
func buildPrompt(profile clone.WebsiteProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# VISUAL RECREATION TASK\nURL: %s\n\n", profile.URL)

	fmt.Fprintf(&b, "## VISUAL REFERENCES\n")
	fmt.Fprintf(&b, "- Full-page desktop screenshot captured: %t\n", profile.Screenshots.Primary != "")
	if len(profile.Screenshots.Responsive) > 0 {
		fmt.Fprintf(&b, "- Responsive breakpoints captured: %s\n", strings.Join(breakpointNames(profile.Screenshots.Responsive), ", "))
	}
	b.WriteString("\n")

	if !profile.Hierarchy.Empty() {
		writeJSONSection(&b, "VISUAL HIERARCHY", profile.Hierarchy, maxHierarchyChars)
		b.WriteString("Structure your HTML semantically from this hierarchy.\n\n")
	}
	if len(profile.DesignTokens.Palette) > 0 || len(profile.DesignTokens.Typography.FontFamilies) > 0 {
		writeJSONSection(&b, "DESIGN TOKENS", profile.DesignTokens, maxTokensChars)
		b.WriteString("Apply these tokens consistently for colors and typography.\n\n")
	}
	if len(profile.Layout.TagCounts) > 0 || len(profile.Layout.GridSelectors) > 0 || len(profile.Layout.FlexSelectors) > 0 {
		writeJSONSection(&b, "LAYOUT PATTERNS", profile.Layout, maxLayoutChars)
		b.WriteString("Implement these with CSS grid and flexbox.\n\n")
	}
	if profile.StructureHTML != "" {
		fmt.Fprintf(&b, "## REFERENCE HTML STRUCTURE\n%s\n\nUse this as the base semantic structure.\n\n",
			truncate(profile.StructureHTML, maxStructureChars))
	}
	if profile.Metadata.Title != "" {
		fmt.Fprintf(&b, "## PAGE METADATA\nTitle: %s\nDescription: %s\n\n",
			profile.Metadata.Title, profile.Metadata.Description)
	}

	b.WriteString("Generate the complete, production-ready HTML document now.")
	return b.String()
}

func writeJSONSection(b *strings.Builder, title string, v any, limit int) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(b, "## %s\n%s\n", title, truncate(string(raw), limit))
}

// truncate bounds s at limit bytes, backing off a partially cut rune so the
// prompt stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func breakpointNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
