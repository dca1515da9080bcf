package crawler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"sjsage522/pricetracker/logger"
)

// RodFetcher renders pages in a headless Chrome before reading their markup.
// Listings that build their product grid client-side need it.
type RodFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewRodFetcher connects to the Chrome at controlURL, or launches a local
// headless one when controlURL is empty. Close must be called when done.
func NewRodFetcher(ctx context.Context, controlURL string) (*RodFetcher, error) {
	f := &RodFetcher{timeout: 30 * time.Second}

	wsURL := controlURL
	if wsURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(true).
			Set("window-size", "1200,600")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		f.launcher = l
		logger.ForComponent("fetcher").Info().Str("url", wsURL).Msg("Launched local chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if f.launcher != nil {
			f.launcher.Kill()
		}
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	f.browser = b

	return f, nil
}

// Fetch implements Fetcher
func (f *RodFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	html, err := page.Context(navCtx).HTML()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return strings.NewReader(html), nil
}

// Close closes the browser and stops a locally launched Chrome
func (f *RodFetcher) Close() error {
	err := f.browser.Close()
	if f.launcher != nil {
		f.launcher.Kill()
	}
	return err
}
