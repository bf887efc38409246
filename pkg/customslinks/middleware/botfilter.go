package middleware

import "strings"

// botPatterns are known bot User-Agent substrings (lowercase).
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "embedly",
	"quora link preview", "pinterest", "applebot",
	"semrushbot", "ahrefsbot", "mj12bot", "dotbot",
	"petalbot", "bytespider",
}

// IsBotUserAgent reports whether ua belongs to a known crawler.
// The resolver uses this to redirect bots without polluting click
// analytics.
func IsBotUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
