package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	chromeAndroidUA = "Mozilla/5.0 (Android 13; Mobile) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	safariIPadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Gecko) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/604.1"
	firefoxLinuxUA  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	edgeWindowsUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
)

func TestClassifyBrowserPrecedence(t *testing.T) {
	// A real Chrome UA contains "Safari" too; Chrome must win.
	assert.Equal(t, "Chrome", Classify(chromeDesktopUA).Browser)

	// An Edge UA contains both "Chrome" and "Safari"; Edge must win.
	assert.Equal(t, "Edge", Classify(edgeWindowsUA).Browser)

	// Safari only wins when "Chrome" is absent.
	assert.Equal(t, "Safari", Classify(safariIPadUA).Browser)

	assert.Equal(t, "Firefox", Classify(firefoxLinuxUA).Browser)
	assert.Equal(t, "Opera", Classify("Opera/9.80 (Windows NT 6.0) Presto/2.12.388 Version/12.14").Browser)
}

func TestClassifyDevicePrecedence(t *testing.T) {
	// Tablet markers win over the generic mobile markers they carry.
	assert.Equal(t, DeviceTablet, Classify(safariIPadUA).DeviceType)
	assert.Equal(t, DeviceTablet, Classify("Mozilla/5.0 (Android 13; Tablet; Mobile) Gecko/121.0 Firefox/121.0").DeviceType)

	assert.Equal(t, DeviceMobile, Classify(chromeAndroidUA).DeviceType)
	assert.Equal(t, DeviceDesktop, Classify(chromeDesktopUA).DeviceType)
}

func TestClassifyOS(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{chromeDesktopUA, "Windows"},
		{firefoxLinuxUA, "Linux"},
		{chromeAndroidUA, "Android"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15", "macOS"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.ua).OS, "ua=%s", tt.ua)
	}
}

func TestClassifyGarbageInput(t *testing.T) {
	for _, ua := range []string{"", "curl/8.4.0", "totally made up agent"} {
		got := Classify(ua)
		assert.Equal(t, DeviceDesktop, got.DeviceType, "ua=%q", ua)
		assert.Equal(t, Unknown, got.Browser, "ua=%q", ua)
		assert.Equal(t, Unknown, got.OS, "ua=%q", ua)
	}
}

func TestClassifyIsPure(t *testing.T) {
	first := Classify(chromeAndroidUA)
	second := Classify(chromeAndroidUA)
	assert.Equal(t, first, second)
}
