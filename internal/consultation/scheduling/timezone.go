// Package scheduling formats booking start times and organizes available slots.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used when the user never picked one.
const DefaultTimezone = "Asia/Dhaka"

// Zone is one entry of the supported timezone table.
type Zone struct {
	Name   string
	Offset string
}

func (z Zone) Label() string {
	return fmt.Sprintf("%s (UTC%s)", z.Name, z.Offset)
}

// Offsets are fixed per zone and never derived from the host clock, so
// daylight saving does not move a booking.
var zones = []Zone{
	{"Asia/Dhaka", "+06:00"},
	{"Asia/Kolkata", "+05:30"},
	{"Asia/Karachi", "+05:00"},
	{"Asia/Dubai", "+04:00"},
	{"Asia/Tokyo", "+09:00"},
	{"Asia/Shanghai", "+08:00"},
	{"Asia/Singapore", "+08:00"},
	{"Asia/Bangkok", "+07:00"},
	{"Asia/Jakarta", "+07:00"},
	{"Asia/Manila", "+08:00"},
	{"America/New_York", "-05:00"},
	{"America/Chicago", "-06:00"},
	{"America/Denver", "-07:00"},
	{"America/Los_Angeles", "-08:00"},
	{"Europe/London", "+00:00"},
	{"Europe/Paris", "+01:00"},
	{"Europe/Berlin", "+01:00"},
	{"Europe/Moscow", "+03:00"},
	{"Australia/Sydney", "+10:00"},
	{"Australia/Melbourne", "+10:00"},
	{"Pacific/Auckland", "+12:00"},
	{"UTC", "+00:00"},
}

// Zones returns the supported timezones in picker order.
func Zones() []Zone {
	return append([]Zone(nil), zones...)
}

// OffsetFor returns the table offset for tz, "+00:00" when tz is unknown.
func OffsetFor(tz string) string {
	for _, z := range zones {
		if z.Name == tz {
			return z.Offset
		}
	}
	return "+00:00"
}

func IsSupported(tz string) bool {
	for _, z := range zones {
		if z.Name == tz {
			return true
		}
	}
	return false
}

// Location loads tz, falling back to UTC for names the runtime does not know.
func Location(tz string) *time.Location {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// To24Hour converts "10:45 AM", "8:00pm" or "10:45" to "HH:MM".
func To24Hour(clock string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(clock))
	modifier := ""
	switch {
	case strings.HasSuffix(s, "AM"):
		modifier = "AM"
	case strings.HasSuffix(s, "PM"):
		modifier = "PM"
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, modifier))

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q", clock)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return "", fmt.Errorf("invalid hour in %q", clock)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minutes > 59 {
		return "", fmt.Errorf("invalid minutes in %q", clock)
	}

	if modifier != "" {
		if hours < 1 || hours > 12 {
			return "", fmt.Errorf("invalid hour in %q", clock)
		}
		if hours == 12 {
			hours = 0
		}
		if modifier == "PM" {
			hours += 12
		}
	}
	if hours < 0 || hours > 23 {
		return "", fmt.Errorf("invalid hour in %q", clock)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// FormatStartTime renders "YYYY-MM-DDTHH:mm:00.000±HH:MM". The date is the
// calendar date of date as seen in tz; the offset comes from the zone table.
func FormatStartTime(date time.Time, clock, tz string) (string, error) {
	time24, err := To24Hour(clock)
	if err != nil {
		return "", err
	}
	day := date.In(Location(tz)).Format("2006-01-02")
	return fmt.Sprintf("%sT%s:00.000%s", day, time24, OffsetFor(tz)), nil
}

// ParseMonth parses "YYYY-MM" in loc.
func ParseMonth(month string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return t, nil
}

// MonthRange returns the first and last day of the month containing month,
// as "YYYY-MM-DD" in loc.
func MonthRange(month time.Time, loc *time.Location) (string, string) {
	m := month.In(loc)
	first := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}
