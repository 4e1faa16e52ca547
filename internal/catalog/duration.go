package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDurationMinutes converts an ISO-8601 duration such as "PT1H2M3S" into
// whole minutes. Hours and minutes count; seconds are ignored, so "PT45M59S"
// is 45. Day components count as 24 hours.
func ParseDurationMinutes(value string) (int, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	match := isoDurationPattern.FindStringSubmatch(value)
	if match == nil || value == "P" || value == "PT" {
		return 0, fmt.Errorf("parse duration %q: not an ISO-8601 duration", value)
	}
	days := atoiOrZero(match[1])
	hours := atoiOrZero(match[2])
	minutes := atoiOrZero(match[3])
	return (days*24+hours)*60 + minutes, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// exceedsLimit reports whether minutes is over maxMinutes. A limit of zero
// disables the check; a duration equal to the limit is kept.
func exceedsLimit(minutes, maxMinutes int) bool {
	return maxMinutes > 0 && minutes > maxMinutes
}
