package common

// IsNumericCode reports whether s is a non-empty run of ASCII digits, the only
// form a pairing code can take.
func IsNumericCode(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
