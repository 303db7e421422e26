package expiry

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultAlertDays is used when no threshold configuration is supplied.
const DefaultAlertDays = "60,30,15,7,1,0"

// Thresholds is a deduplicated set of "days remaining" alert points, sorted descending.
type Thresholds []int

// ParseThresholds splits raw on commas. Blank and non-integer tokens are dropped.
func ParseThresholds(raw string) Thresholds {
	seen := make(map[int]struct{})
	out := make(Thresholds, 0)
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Contains reports exact membership; a day count never matches a larger threshold.
func (t Thresholds) Contains(days int) bool {
	for _, v := range t {
		if v == days {
			return true
		}
	}
	return false
}

func (t Thresholds) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
