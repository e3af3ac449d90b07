package browser

// ProxyConfig is an egress proxy folded into a browser launch
type ProxyConfig struct {
	Server   string
	Username string
	Password string
}

// LaunchOptions configures one isolated browser instance
type LaunchOptions struct {
	Headless    bool
	UserDataDir string
	Proxy       *ProxyConfig

	// Identity applied at context creation; the rest of the fingerprint is
	// injected onto the page before first navigation.
	UserAgent      string
	Timezone       string
	Locale         string
	ViewportWidth  int
	ViewportHeight int

	// TimeoutMs is the default bound for every page operation (0 uses
	// DefaultTimeoutMs)
	TimeoutMs float64
}

// Page is the control handle for a session's tab
type Page interface {
	Navigate(url string) error
	Click(selector string) error
	Type(selector, text string) error
	WaitForTimeout(ms float64)
	WaitForSelector(selector string) error
	GetText(selector string) (string, error)
	Screenshot(fullPage bool) ([]byte, error)
	Evaluate(script string) (interface{}, error)
	AddInitScript(script string) error
	SetViewport(width, height int) error
	SetGeolocation(latitude, longitude, accuracy float64) error
	URL() string
	Title() (string, error)
}

// Instance is one launched browser plus its page handle
type Instance interface {
	Page() Page
	Close() error
}

// Launcher creates isolated browser instances
type Launcher interface {
	Launch(opts LaunchOptions) (Instance, error)
}

// Defaults for launch and page operations
const (
	DefaultTimeoutMs      = 30000.0
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
