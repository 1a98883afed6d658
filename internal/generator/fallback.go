package generator

import (
	"html/template"
	"strings"

	"sitecloner/internal/clone"
)

const (
	fallbackBackground = "#ffffff"
	fallbackForeground = "#000000"
	fallbackTitle      = "Cloned Website"
)

var fallbackTmpl = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: {{.FontStack}};
  background-color: {{.Background}};
  color: {{.Foreground}};
  line-height: 1.6;
  padding: 20px;
}
.container { max-width: 1200px; margin: 0 auto; padding: 20px; }
.header {
  text-align: center;
  margin-bottom: 40px;
  padding: 40px 0;
  border-radius: 10px;
  border: 1px solid {{.Foreground}};
}
h1 { font-size: 2.5rem; margin-bottom: 10px; }
.content {
  padding: 30px;
  border-radius: 10px;
  box-shadow: 0 4px 6px rgba(0,0,0,0.1);
}
@media (max-width: 768px) {
  .container { padding: 10px; }
  h1 { font-size: 2rem; }
  .content { padding: 20px; }
}
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Title}}</h1>
    <p>Website Recreation</p>
  </div>
  <div class="content">
    <h2>Website Clone Generated</h2>
    <p>This is a locally synthesized version of the requested page.</p>
    <ul>
      <li>Original URL: {{.URL}}</li>
      <li>Colors detected: {{.PaletteSize}}</li>
      <li>Fonts detected: {{.FontCount}}</li>
    </ul>
  </div>
</div>
</body>
</html>
`))

type fallbackData struct {
	Title       string
	URL         string
	Background  template.CSS
	Foreground  template.CSS
	FontStack   template.CSS
	PaletteSize int
	FontCount   int
}

// FallbackHTML renders the deterministic local document from the profile's
// palette, fonts, title and URL. Absent fields get defaults, so it always
// returns non-empty, well-formed HTML.
func FallbackHTML(profile clone.WebsiteProfile) string {
	data := fallbackData{
		Title:       fallbackTitle,
		URL:         profile.URL,
		Background:  fallbackBackground,
		Foreground:  fallbackForeground,
		FontStack:   template.CSS(`-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif`),
		PaletteSize: len(profile.DesignTokens.Palette),
		FontCount:   len(profile.DesignTokens.Typography.FontFamilies),
	}
	if profile.Metadata.Title != "" {
		data.Title = profile.Metadata.Title
	}
	if palette := profile.DesignTokens.Palette; len(palette) > 0 {
		if css := safeCSSColor(palette[0]); css != "" {
			data.Background = template.CSS(css)
		}
		if len(palette) > 1 {
			if css := safeCSSColor(palette[1]); css != "" {
				data.Foreground = template.CSS(css)
			}
		}
	}
	if stack := safeCSSFontStack(profile.DesignTokens.Typography.FontFamilies); stack != "" {
		data.FontStack = template.CSS(stack)
	}

	var b strings.Builder
	if err := fallbackTmpl.Execute(&b, data); err != nil {
		// The template is static and the data plain values; execution cannot
		// realistically fail, but the contract is "never empty".
		return "<!DOCTYPE html>\n<html><head><title>" + fallbackTitle + "</title></head><body></body></html>"
	}
	return b.String()
}

// safeCSSFontStack builds a font-family value from scraped family names,
// admitting only names that pass the character whitelist. Returns "" when no
// name survives, leaving the caller on the default stack.
func safeCSSFontStack(fonts []string) string {
	kept := make([]string, 0, len(fonts))
	for _, f := range fonts {
		if name := safeCSSFontName(f); name != "" {
			kept = append(kept, name)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ", ") + ", sans-serif"
}

// safeCSSFontName allows only plain family names into the template's CSS
// context. Names come from a scraped page and are untrusted.
func safeCSSFontName(f string) string {
	f = strings.TrimSpace(strings.Trim(strings.TrimSpace(f), `"'`))
	if f == "" || len(f) > 64 {
		return ""
	}
	for _, r := range f {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ' || r == '-':
		default:
			return ""
		}
	}
	if strings.Contains(f, " ") {
		return `"` + f + `"`
	}
	return f
}

// safeCSSColor allows only simple color literals into the template's CSS
// context.
func safeCSSColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || len(c) > 64 {
		return ""
	}
	for _, r := range c {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '#' || r == '(' || r == ')' || r == ',' || r == '.' || r == '%' || r == ' ' || r == '-':
		default:
			return ""
		}
	}
	return c
}
