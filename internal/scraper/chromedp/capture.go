package chromedp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdp "github.com/chromedp/chromedp"

	"sitecloner/internal/clone"
)

type viewport struct {
	width  int64
	height int64
}

var (
	desktopViewport = viewport{width: 1920, height: 1080}

	// Secondary captures keyed by breakpoint name.
	responsiveViewports = map[string]viewport{
		"tablet": {width: 768, height: 1024},
		"mobile": {width: 375, height: 667},
	}
)

const settleDelay = 1500 * time.Millisecond

// runCapture drives one rendered-page capture inside an already prepared
// chromedp context and assembles the profile.
func (s *Scraper) runCapture(ctx context.Context, url string) (clone.WebsiteProfile, error) {
	assets := newAssetRecorder()
	cdp.ListenTarget(ctx, assets.listen)

	var (
		primary       []byte
		rawHTML       string
		hierarchyJSON string
		tokensJSON    string
		layoutJSON    string
		metaJSON      string
	)

	actions := []cdp.Action{
		network.Enable(),
		setViewport(desktopViewport),
		cdp.Navigate(url),
		cdp.WaitReady("body", cdp.ByQuery),
		cdp.Sleep(settleDelay),
		cdp.FullScreenshot(&primary, 90),
		cdp.Evaluate(hierarchyScript, &hierarchyJSON),
		cdp.Evaluate(designTokensScript, &tokensJSON),
		cdp.Evaluate(layoutScript, &layoutJSON),
		cdp.Evaluate(metadataScript, &metaJSON),
		cdp.OuterHTML("html", &rawHTML, cdp.ByQuery),
	}
	if err := cdp.Run(ctx, actions...); err != nil {
		return clone.WebsiteProfile{}, fmt.Errorf("render %s: %w", url, err)
	}

	responsive := make(map[string]string, len(responsiveViewports))
	for name, vp := range responsiveViewports {
		var shot []byte
		err := cdp.Run(ctx,
			setViewport(vp),
			cdp.Sleep(settleDelay/2),
			cdp.FullScreenshot(&shot, 90),
		)
		if err != nil {
			return clone.WebsiteProfile{}, fmt.Errorf("responsive capture %s: %w", name, err)
		}
		responsive[name] = base64.StdEncoding.EncodeToString(shot)
	}

	profile := clone.WebsiteProfile{
		URL: url,
		Screenshots: clone.Screenshots{
			Primary:    base64.StdEncoding.EncodeToString(primary),
			Responsive: responsive,
		},
		StructureHTML: cleanStructure(rawHTML, s.cfg.MaxStructureBytes),
		Assets:        assets.inventory(),
		Success:       true,
	}

	if err := json.Unmarshal([]byte(hierarchyJSON), &profile.Hierarchy); err != nil {
		return clone.WebsiteProfile{}, fmt.Errorf("decode hierarchy: %w", err)
	}
	if err := json.Unmarshal([]byte(tokensJSON), &profile.DesignTokens); err != nil {
		return clone.WebsiteProfile{}, fmt.Errorf("decode design tokens: %w", err)
	}
	if err := json.Unmarshal([]byte(layoutJSON), &profile.Layout); err != nil {
		return clone.WebsiteProfile{}, fmt.Errorf("decode layout: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &profile.Metadata); err != nil {
		return clone.WebsiteProfile{}, fmt.Errorf("decode metadata: %w", err)
	}

	return profile, nil
}

func setViewport(vp viewport) cdp.Action {
	return emulation.SetDeviceMetricsOverride(vp.width, vp.height, 1.0, false)
}

// assetRecorder builds the asset inventory from CDP network events fired
// while the page renders.
type assetRecorder struct {
	mu          sync.Mutex
	seen        map[string]struct{}
	images      []string
	fonts       []string
	scripts     []string
	stylesheets []string
}

func newAssetRecorder() *assetRecorder {
	return &assetRecorder{seen: make(map[string]struct{})}
}

func (a *assetRecorder) listen(ev any) {
	req, ok := ev.(*network.EventRequestWillBeSent)
	if !ok || req.Request == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	url := req.Request.URL
	if _, dup := a.seen[url]; dup {
		return
	}
	switch req.Type {
	case network.ResourceTypeImage:
		a.images = append(a.images, url)
	case network.ResourceTypeFont:
		a.fonts = append(a.fonts, url)
	case network.ResourceTypeScript:
		a.scripts = append(a.scripts, url)
	case network.ResourceTypeStylesheet:
		a.stylesheets = append(a.stylesheets, url)
	default:
		return
	}
	a.seen[url] = struct{}{}
}

func (a *assetRecorder) inventory() clone.AssetInventory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone.AssetInventory{
		Images:      append([]string(nil), a.images...),
		Fonts:       append([]string(nil), a.fonts...),
		Scripts:     append([]string(nil), a.scripts...),
		Stylesheets: append([]string(nil), a.stylesheets...),
	}
}
