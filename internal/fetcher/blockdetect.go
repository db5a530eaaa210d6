package fetcher

import (
	"net/http"
	"strings"
)

// challengeSignatures appear on bot-protection interstitials.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript and cookies",
	"please enable cookies",
	"access denied",
	"just a moment",
	"attention required",
	"cf-chl",
	"captcha-delivery",
	"px-captcha",
}

// challengePageMaxLen bounds how large a challenge page can be. Real
// listing pages are far larger and may mention these phrases in passing.
const challengePageMaxLen = 20000

// IsBlocked reports whether status and body look like a bot challenge
// rather than content.
func IsBlocked(status int, body string) bool {
	if status == http.StatusForbidden {
		return true
	}
	if len(body) > challengePageMaxLen {
		return false
	}
	lower := strings.ToLower(body)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
