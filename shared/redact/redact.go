// Package redact hides account numbers in report text.
package redact

import "regexp"

// Mask replaces every account number.
const Mask = "xxxxxxxxxxxx"

var accountNumber = regexp.MustCompile(`[0-9]{12}`)

// ScrubAccountNumbers replaces every run of twelve digits in s with Mask.
func ScrubAccountNumbers(s string) string {
	return accountNumber.ReplaceAllString(s, Mask)
}
