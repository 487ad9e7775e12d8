// Package email derives presentable values from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayNameFromEmail turns "ravi.kumar+land@example.com" into "Ravi Kumar".
// Sub-address tags after '+' are ignored. Returns "" when nothing usable remains.
func DisplayNameFromEmail(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}
	if plus := strings.IndexByte(local, '+'); plus >= 0 {
		local = local[:plus]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsDigit(r)
	})
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
