package shared

import "time"

// ParseDate accepts RFC3339 or the plain YYYY-MM-DD roll-call wire format.
// An empty value parses to the zero time so handlers can treat absent and
// invalid dates separately.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}
