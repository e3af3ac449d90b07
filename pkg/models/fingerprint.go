package models

// Screen describes the spoofed display geometry
type Screen struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	ColorDepth int `json:"colorDepth"`
	PixelDepth int `json:"pixelDepth"`
}

// WebGLInfo carries the vendor/renderer strings reported through the
// 3D-rendering capability query
type WebGLInfo struct {
	Vendor   string `json:"vendor"`
	Renderer string `json:"renderer"`
}

// Geolocation is a fixed coordinate override. A nil Geolocation on a
// fingerprint means "auto": no override is installed.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Fingerprint is the bag of spoofable device/browser attributes a session
// presents to visited sites
type Fingerprint struct {
	ID                  string       `json:"fingerprintId"`
	Platform            string       `json:"platform"`
	UserAgent           string       `json:"userAgent"`
	WebGL               WebGLInfo    `json:"webGLInfo"`
	Timezone            string       `json:"timezone"`
	Language            string       `json:"language"`
	Geolocation         *Geolocation `json:"geolocation,omitempty"`
	HardwareConcurrency int          `json:"hardwareConcurrency"`
	DeviceMemory        int          `json:"deviceMemory"`
	Screen              Screen       `json:"screen"`
	WebRTC              string       `json:"webRTC,omitempty"`
	Canvas              string       `json:"canvas,omitempty"`
	DoNotTrack          string       `json:"doNotTrack,omitempty"`
}
