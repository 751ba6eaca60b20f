package swap

import (
	"regexp"
	"strings"
)

// amountPattern is the grammar of the amount field: digits, at most one
// separator, optional trailing digits. The empty string clears the field.
var amountPattern = regexp.MustCompile(`^\d*(?:\.\d*)?$`)

// NormalizeAmountInput maps the locale separator "," to "." and reports whether
// the result is acceptable as an input amount.
func NormalizeAmountInput(s string) (string, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	if !amountPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// isZeroAmount reports whether an accepted amount string quotes nothing.
func isZeroAmount(s string) bool {
	return strings.Trim(s, "0.") == ""
}
