package proxycfg

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/browserfarm/browserfarm/pkg/models"
)

const defaultTestURL = "https://api.ipify.org"

// Tester checks proxy health by fetching the exit IP through the proxy
type Tester struct {
	TestURL string
	Timeout time.Duration
}

func NewTester() *Tester {
	return &Tester{
		TestURL: defaultTestURL,
		Timeout: 10 * time.Second,
	}
}

// Test routes one GET through the proxy and reports latency plus the exit
// IP the remote endpoint observed. Failures are returned in the result, not
// as an error; an unreachable proxy is a normal outcome.
func (t *Tester) Test(proxy models.Proxy) models.ProxyTestResult {
	proxyURL, err := url.Parse(FormatURL(proxy))
	if err != nil {
		return models.ProxyTestResult{Success: false, Error: fmt.Sprintf("invalid proxy url: %v", err)}
	}

	client := &http.Client{
		Timeout: t.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}

	start := time.Now()
	resp, err := client.Get(t.TestURL)
	if err != nil {
		return models.ProxyTestResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ProxyTestResult{Success: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return models.ProxyTestResult{Success: false, Error: err.Error()}
	}

	return models.ProxyTestResult{
		Success: true,
		SpeedMs: time.Since(start).Milliseconds(),
		IP:      string(body),
	}
}
