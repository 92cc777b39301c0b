package mission

// defaultDurationMinutes is recorded when the duration text carries no
// number at all.
const defaultDurationMinutes = 15

// ParseDurationMinutes extracts minutes from free-text like
// "About 15-20 minutes": the first maximal run of decimal digits, parsed
// as an integer. Text without digits yields the default.
func ParseDurationMinutes(text string) int {
	value := 0
	seen := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			seen = true
			value = value*10 + int(r-'0')
			continue
		}
		if seen {
			break
		}
	}
	if !seen {
		return defaultDurationMinutes
	}
	return value
}
