package util

import (
	"regexp"
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{20,}$`)

// ValidateMonobankToken checks the shape of a personal API token before we
// spend a rate-limited upstream call on it.
func ValidateMonobankToken(token string) bool {
	return tokenPattern.MatchString(token)
}

func ValidatePlatform(platform string) bool {
	switch platform {
	case "android", "ios", "web":
		return true
	}
	return false
}

func ValidateTransactionKind(kind string) bool {
	return kind == "income" || kind == "expense"
}
