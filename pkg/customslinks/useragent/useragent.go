// Package useragent classifies raw User-Agent strings into coarse
// device, browser, and OS families for click analytics.
package useragent

import "strings"

// Unknown is the sentinel for any dimension that cannot be determined.
const Unknown = "unknown"

// Device classes
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Classification is the derived triple for one User-Agent string
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
}

var mobileMarkers = []string{
	"mobile", "android", "iphone", "ipad", "ipod",
	"blackberry", "iemobile", "opera mini",
}

var tabletMarkers = []string{"tablet", "ipad"}

// Classify maps a raw User-Agent string to a device/browser/OS triple.
// It is a total function: any input, including empty or garbage
// strings, produces a well-formed result with unknown/desktop
// defaults. Matching is case-insensitive substring matching in a
// fixed precedence order; several markers overlap (a Chrome UA also
// contains "Safari", an Edge UA also contains "Chrome"), so the order
// of the checks is part of the contract.
func Classify(userAgent string) Classification {
	ua := strings.ToLower(userAgent)

	return Classification{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		OS:         classifyOS(ua),
	}
}

// classifyDevice picks tablet over mobile: tablet UAs almost always
// carry a generic mobile marker too.
func classifyDevice(ua string) string {
	if !containsAny(ua, mobileMarkers) {
		return DeviceDesktop
	}
	if containsAny(ua, tabletMarkers) {
		return DeviceTablet
	}
	return DeviceMobile
}

func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		return "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return "Safari"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		return "Opera"
	default:
		return Unknown
	}
}

func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "iOS"
	default:
		return Unknown
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
