package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Chromium launch flags carried on every instance. Sandboxing is disabled
// for containerized deployments; throttling flags keep background pages
// responsive to fan-out commands.
var defaultArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--no-first-run",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-renderer-backgrounding",
}

// Engine drives browsers through the Playwright driver. One Engine is
// shared by all sessions; each Launch produces an isolated persistent
// context rooted at the profile's user-data directory.
type Engine struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// NewEngine creates an engine. Initialize must be called before Launch.
func NewEngine() *Engine {
	return &Engine{}
}

// Initialize installs (if needed) and starts the Playwright driver.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	e.pw = pw
	e.initialized = true
	return nil
}

// Launch starts a Chromium instance with a persistent context bound to the
// profile's user-data directory.
func (e *Engine) Launch(opts LaunchOptions) (Instance, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine not initialized")
	}
	chromium := e.pw.Chromium
	e.mu.Unlock()

	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = DefaultTimeoutMs
	}
	if opts.ViewportWidth == 0 || opts.ViewportHeight == 0 {
		opts.ViewportWidth = DefaultViewportWidth
		opts.ViewportHeight = DefaultViewportHeight
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     defaultArgs,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		Timeout: playwright.Float(opts.TimeoutMs),
	}

	if opts.UserAgent != "" {
		launchOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Timezone != "" {
		launchOpts.TimezoneId = playwright.String(opts.Timezone)
	}
	if opts.Locale != "" {
		launchOpts.Locale = playwright.String(opts.Locale)
	}
	if opts.Proxy != nil {
		proxy := &playwright.Proxy{Server: opts.Proxy.Server}
		if opts.Proxy.Username != "" {
			proxy.Username = playwright.String(opts.Proxy.Username)
			proxy.Password = playwright.String(opts.Proxy.Password)
		}
		launchOpts.Proxy = proxy
	}

	context, err := chromium.LaunchPersistentContext(opts.UserDataDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// A persistent context opens with one blank page; reuse it so the
	// spoofing overrides land before any navigation.
	var page playwright.Page
	if pages := context.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = context.NewPage()
		if err != nil {
			context.Close()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	page.SetDefaultTimeout(opts.TimeoutMs)

	return &chromiumInstance{
		context: context,
		page:    &chromiumPage{page: page, context: context, timeoutMs: opts.TimeoutMs},
	}, nil
}

// Close stops the Playwright driver. Launched instances must be closed first.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.pw == nil {
		return nil
	}

	e.initialized = false
	if err := e.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type chromiumInstance struct {
	context playwright.BrowserContext
	page    *chromiumPage
}

func (i *chromiumInstance) Page() Page { return i.page }

func (i *chromiumInstance) Close() error {
	return i.context.Close()
}

type chromiumPage struct {
	page      playwright.Page
	context   playwright.BrowserContext
	timeoutMs float64
}

func (p *chromiumPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(p.timeoutMs),
	})
	return err
}

func (p *chromiumPage) Click(selector string) error {
	return p.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(p.timeoutMs),
	})
}

func (p *chromiumPage) Type(selector, text string) error {
	return p.page.Type(selector, text, playwright.PageTypeOptions{
		Timeout: playwright.Float(p.timeoutMs),
	})
}

func (p *chromiumPage) WaitForTimeout(ms float64) {
	p.page.WaitForTimeout(ms)
}

func (p *chromiumPage) WaitForSelector(selector string) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(p.timeoutMs),
	})
	return err
}

func (p *chromiumPage) GetText(selector string) (string, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", err
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	return element.TextContent()
}

func (p *chromiumPage) Screenshot(fullPage bool) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

func (p *chromiumPage) Evaluate(script string) (interface{}, error) {
	return p.page.Evaluate(script)
}

func (p *chromiumPage) AddInitScript(script string) error {
	return p.page.AddInitScript(playwright.Script{Content: playwright.String(script)})
}

func (p *chromiumPage) SetViewport(width, height int) error {
	return p.page.SetViewportSize(width, height)
}

func (p *chromiumPage) SetGeolocation(latitude, longitude, accuracy float64) error {
	return p.context.SetGeolocation(&playwright.Geolocation{
		Latitude:  latitude,
		Longitude: longitude,
		Accuracy:  playwright.Float(accuracy),
	})
}

func (p *chromiumPage) URL() string {
	return p.page.URL()
}

func (p *chromiumPage) Title() (string, error) {
	return p.page.Title()
}
