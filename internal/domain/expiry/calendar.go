// internal/domain/expiry/calendar.go
package expiry

import (
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// ISODate is the canonical layout used for expiry dates everywhere past the input boundary.
const ISODate = "2006-01-02"

// inputLayouts are the date formats accepted from spreadsheets and admin forms.
var inputLayouts = []string{
	ISODate,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// Clock supplies the current instant. Tests pass a fixed clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Resolver computes whole calendar days between today, as observed in a fixed
// timezone, and an expiry date.
type Resolver struct {
	loc   *time.Location
	clock Clock
}

// NewResolver loads the IANA zone once. A nil clock means the system clock.
func NewResolver(timezoneID string, clock Clock) (*Resolver, error) {
	loc, err := time.LoadLocation(timezoneID)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezoneID, err)
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Resolver{loc: loc, clock: clock}, nil
}

// Location returns the zone "today" is resolved in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Today returns the current calendar date in the resolver's zone, as midnight UTC.
func (r *Resolver) Today() time.Time {
	now := r.clock.Now().In(r.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysRemaining returns expiry minus today in whole days. ok is false when the
// expiry date is empty or not a canonical ISO date.
func (r *Resolver) DaysRemaining(expiryDate string) (int, bool) {
	expiryDate = strings.TrimSpace(expiryDate)
	if expiryDate == "" {
		return 0, false
	}
	exp, err := time.Parse(ISODate, expiryDate)
	if err != nil {
		return 0, false
	}
	return int((exp.Unix() - r.Today().Unix()) / secondsPerDay), true
}

// ParseDate accepts any of the input layouts and returns the date at midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate converts any accepted input layout into ISODate.
func NormalizeDate(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(ISODate), true
}
