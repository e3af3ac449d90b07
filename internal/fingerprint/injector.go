package fingerprint

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/browserfarm/browserfarm/internal/browser"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// availHeight is reduced by the OS chrome/taskbar allowance
const chromeBarAllowance = 40

// Injector applies a fingerprint to a page before its first navigation.
// Every override is independent: one failing is logged and skipped, never
// aborting the rest or the session start.
type Injector struct{}

func NewInjector() *Injector {
	return &Injector{}
}

type override struct {
	name  string
	apply func(page browser.Page) error
}

// Apply installs the identity overrides in order. It never returns an
// error; partial spoofing is preferable to refusing to start a session.
func (in *Injector) Apply(page browser.Page, fp models.Fingerprint) {
	for _, o := range in.overrides(fp) {
		if err := o.apply(page); err != nil {
			log.Printf("[fingerprint] %s override failed, skipping: %v", o.name, err)
		}
	}
}

func (in *Injector) overrides(fp models.Fingerprint) []override {
	var steps []override

	if fp.UserAgent != "" {
		steps = append(steps, override{"userAgent", func(p browser.Page) error {
			return p.AddInitScript(definePropertyScript("navigator", "userAgent", fp.UserAgent))
		}})
	}
	if fp.Screen.Width > 0 && fp.Screen.Height > 0 {
		steps = append(steps, override{"viewport", func(p browser.Page) error {
			return p.SetViewport(fp.Screen.Width, fp.Screen.Height)
		}})
	}
	if fp.Geolocation != nil {
		geo := *fp.Geolocation
		steps = append(steps, override{"geolocation", func(p browser.Page) error {
			return p.SetGeolocation(geo.Latitude, geo.Longitude, geo.Accuracy)
		}})
	}
	if fp.Timezone != "" {
		steps = append(steps, override{"timezone", func(p browser.Page) error {
			return p.AddInitScript(timezoneScript(fp.Timezone))
		}})
	}
	if fp.WebGL.Vendor != "" && fp.WebGL.Renderer != "" {
		steps = append(steps, override{"webGL", func(p browser.Page) error {
			return p.AddInitScript(webGLScript(fp.WebGL))
		}})
	}
	if fp.HardwareConcurrency > 0 {
		steps = append(steps, override{"hardwareConcurrency", func(p browser.Page) error {
			return p.AddInitScript(definePropertyScript("navigator", "hardwareConcurrency", fp.HardwareConcurrency))
		}})
	}
	if fp.DeviceMemory > 0 {
		steps = append(steps, override{"deviceMemory", func(p browser.Page) error {
			return p.AddInitScript(definePropertyScript("navigator", "deviceMemory", fp.DeviceMemory))
		}})
	}
	if fp.Language != "" {
		steps = append(steps, override{"language", func(p browser.Page) error {
			return p.AddInitScript(languageScript(fp.Language))
		}})
	}
	if fp.Platform != "" {
		steps = append(steps, override{"platform", func(p browser.Page) error {
			return p.AddInitScript(definePropertyScript("navigator", "platform", fp.Platform))
		}})
	}
	if fp.Screen.Width > 0 && fp.Screen.Height > 0 {
		steps = append(steps, override{"screen", func(p browser.Page) error {
			return p.AddInitScript(screenScript(fp.Screen))
		}})
	}

	return steps
}

func jsValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func definePropertyScript(object, property string, value interface{}) string {
	return fmt.Sprintf(
		"Object.defineProperty(%s, %s, { get: () => %s });",
		object, jsValue(property), jsValue(value),
	)
}

func webGLScript(info models.WebGLInfo) string {
	// 37445/37446 are UNMASKED_VENDOR_WEBGL / UNMASKED_RENDERER_WEBGL
	return fmt.Sprintf(`(() => {
  const getParameter = WebGLRenderingContext.prototype.getParameter;
  WebGLRenderingContext.prototype.getParameter = function (parameter) {
    if (parameter === 37445) return %s;
    if (parameter === 37446) return %s;
    return getParameter.call(this, parameter);
  };
})();`, jsValue(info.Vendor), jsValue(info.Renderer))
}

func timezoneScript(tz string) string {
	return fmt.Sprintf(`(() => {
  const resolved = Intl.DateTimeFormat.prototype.resolvedOptions;
  Intl.DateTimeFormat.prototype.resolvedOptions = function () {
    const options = resolved.call(this);
    options.timeZone = %s;
    return options;
  };
})();`, jsValue(tz))
}

func languageScript(language string) string {
	parts := strings.Split(language, ",")
	primary := strings.TrimSpace(parts[0])
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		lang := strings.TrimSpace(strings.SplitN(p, ";", 2)[0])
		if lang != "" {
			list = append(list, lang)
		}
	}
	return fmt.Sprintf(`(() => {
  Object.defineProperty(navigator, 'language', { get: () => %s });
  Object.defineProperty(navigator, 'languages', { get: () => %s });
})();`, jsValue(primary), jsValue(list))
}

func screenScript(screen models.Screen) string {
	return fmt.Sprintf(`(() => {
  Object.defineProperty(window.screen, 'width', { get: () => %d });
  Object.defineProperty(window.screen, 'height', { get: () => %d });
  Object.defineProperty(window.screen, 'availWidth', { get: () => %d });
  Object.defineProperty(window.screen, 'availHeight', { get: () => %d });
})();`, screen.Width, screen.Height, screen.Width, screen.Height-chromeBarAllowance)
}
