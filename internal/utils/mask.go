package utils

import "strings"

// MaskSecret keeps a short prefix of a token so log lines stay correlatable.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "*****"
	}
	return s[:4] + "*****"
}

// MaskEmail keeps the domain and the first two characters of the local part.
func MaskEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 0 || strings.Count(s, "@") != 1 {
		return "***"
	}

	local, domain := []rune(s[:at]), s[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return string(local[:2]) + "***@" + domain
}
