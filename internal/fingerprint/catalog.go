package fingerprint

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// Attribute pools drawn from real desktop Chrome populations. Entries are
// combined independently; webGL vendor/renderer stay paired so the reported
// GPU is internally consistent.

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
}

var platforms = []string{
	"Win32",
	"MacIntel",
	"Linux x86_64",
}

type webGLPair struct {
	vendor   string
	renderer string
}

var webGLPairs = []webGLPair{
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon R7 430 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) HD Graphics 620 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

var screenResolutions = []models.Screen{
	{Width: 1920, Height: 1080, ColorDepth: 24, PixelDepth: 24},
	{Width: 1366, Height: 768, ColorDepth: 24, PixelDepth: 24},
	{Width: 1440, Height: 900, ColorDepth: 24, PixelDepth: 24},
	{Width: 1536, Height: 864, ColorDepth: 24, PixelDepth: 24},
	{Width: 1280, Height: 720, ColorDepth: 24, PixelDepth: 24},
	{Width: 2560, Height: 1440, ColorDepth: 24, PixelDepth: 24},
}

var timezones = []string{
	"Asia/Ho_Chi_Minh",
	"Asia/Bangkok",
	"Asia/Singapore",
	"Asia/Jakarta",
	"Asia/Manila",
	"America/New_York",
	"America/Los_Angeles",
	"Europe/London",
	"Europe/Berlin",
}

var languages = []string{
	"vi-VN,vi;q=0.9,en;q=0.8",
	"en-US,en;q=0.9",
	"zh-CN,zh;q=0.9,en;q=0.8",
	"ja-JP,ja;q=0.9,en;q=0.8",
	"ko-KR,ko;q=0.9,en;q=0.8",
}

var cpuCores = []int{4, 6, 8, 12, 16}
var memorySizes = []int{4, 8, 16, 32}

func pick[T any](items []T) T {
	return items[rand.Intn(len(items))]
}

// Generate produces a random fingerprint. Geolocation is left nil ("auto").
func Generate() models.Fingerprint {
	gl := pick(webGLPairs)

	return models.Fingerprint{
		ID:                  uuid.New().String(),
		Platform:            pick(platforms),
		UserAgent:           pick(userAgents),
		WebGL:               models.WebGLInfo{Vendor: gl.vendor, Renderer: gl.renderer},
		Timezone:            pick(timezones),
		Language:            pick(languages),
		HardwareConcurrency: pick(cpuCores),
		DeviceMemory:        pick(memorySizes),
		Screen:              pick(screenResolutions),
		WebRTC:              "altered",
		Canvas:              "real",
		DoNotTrack:          "off",
	}
}

// Validate checks that a fingerprint carries every attribute the injector
// installs.
func Validate(fp models.Fingerprint) error {
	switch {
	case fp.Platform == "":
		return fmt.Errorf("fingerprint missing platform")
	case fp.UserAgent == "":
		return fmt.Errorf("fingerprint missing userAgent")
	case fp.WebGL.Vendor == "" || fp.WebGL.Renderer == "":
		return fmt.Errorf("fingerprint missing webGL info")
	case fp.Timezone == "":
		return fmt.Errorf("fingerprint missing timezone")
	case fp.Language == "":
		return fmt.Errorf("fingerprint missing language")
	case fp.HardwareConcurrency <= 0:
		return fmt.Errorf("fingerprint missing hardwareConcurrency")
	case fp.DeviceMemory <= 0:
		return fmt.Errorf("fingerprint missing deviceMemory")
	case fp.Screen.Width <= 0 || fp.Screen.Height <= 0:
		return fmt.Errorf("fingerprint missing screen dimensions")
	}
	return nil
}

// IsUnique reports whether fp is distinguishable from every fingerprint in
// existing. Two fingerprints collide when their ID matches or their visible
// surface (userAgent + resolution + renderer) is identical.
func IsUnique(fp models.Fingerprint, existing []models.Fingerprint) bool {
	for _, other := range existing {
		if other.ID == fp.ID {
			return false
		}
		if other.UserAgent == fp.UserAgent &&
			other.Screen.Width == fp.Screen.Width &&
			other.Screen.Height == fp.Screen.Height &&
			other.WebGL.Renderer == fp.WebGL.Renderer {
			return false
		}
	}
	return true
}

// Reroll regenerates a fingerprint, usually keeping platform and timezone
// so a profile's apparent locale stays stable across rolls.
func Reroll(existing models.Fingerprint) models.Fingerprint {
	fp := Generate()
	if rand.Float64() > 0.3 {
		fp.Platform = existing.Platform
		fp.Timezone = existing.Timezone
	}
	return fp
}
