package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Timezone table
// ==========================

func TestOffsetFor(t *testing.T) {
	tests := []struct {
		tz   string
		want string
	}{
		{"Asia/Dhaka", "+06:00"},
		{"Asia/Kolkata", "+05:30"},
		{"America/New_York", "-05:00"},
		{"Pacific/Auckland", "+12:00"},
		{"UTC", "+00:00"},
		{"Mars/Olympus_Mons", "+00:00"},
		{"", "+00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			assert.Equal(t, tt.want, OffsetFor(tt.tz))
		})
	}
}

func TestZones(t *testing.T) {
	z := Zones()
	require.Len(t, z, 22)
	assert.Equal(t, "Asia/Dhaka", z[0].Name)
	assert.Equal(t, "Asia/Dhaka (UTC+06:00)", z[0].Label())

	z[0].Name = "mutated"
	assert.Equal(t, "Asia/Dhaka", Zones()[0].Name)

	for _, zone := range z[1:] {
		_, err := time.LoadLocation(zone.Name)
		assert.NoError(t, err, zone.Name)
	}
}

// ==========================
// Time formatting
// ==========================

func TestTo24Hour(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10:45 AM", want: "10:45"},
		{in: "10:45 PM", want: "22:45"},
		{in: "12:30am", want: "00:30"},
		{in: "12:00 PM", want: "12:00"},
		{in: "8:00pm", want: "20:00"},
		{in: "09:15", want: "09:15"},
		{in: "23:59", want: "23:59"},
		{in: "13:00 PM", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "10", wantErr: true},
		{in: "10:5", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := To24Hour(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatStartTime(t *testing.T) {
	dhaka, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	date := time.Date(2025, 10, 23, 0, 0, 0, 0, dhaka)
	got, err := FormatStartTime(date, "10:00 AM", "Asia/Dhaka")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-23T10:00:00.000+06:00", got)

	got, err = FormatStartTime(date, "14:30", "Asia/Dhaka")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-23T14:30:00.000+06:00", got)
}

func TestFormatStartTime_KeepsTimezoneDateNearMidnight(t *testing.T) {
	// 00:30 on Oct 23 in Dhaka is still Oct 22 in UTC.
	date := time.Date(2025, 10, 22, 18, 30, 0, 0, time.UTC)

	got, err := FormatStartTime(date, "00:30", "Asia/Dhaka")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-23T00:30:00.000+06:00", got)

	got, err = FormatStartTime(date, "13:30", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-22T13:30:00.000-05:00", got)
}

func TestFormatStartTime_UnknownZone(t *testing.T) {
	date := time.Date(2025, 10, 23, 9, 0, 0, 0, time.UTC)
	got, err := FormatStartTime(date, "09:00", "Nowhere/Special")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-23T09:00:00.000+00:00", got)

	_, err = FormatStartTime(date, "late", "UTC")
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	dhaka := Location("Asia/Dhaka")

	month, err := ParseMonth("2025-10", dhaka)
	require.NoError(t, err)
	start, end := MonthRange(month, dhaka)
	assert.Equal(t, "2025-10-01", start)
	assert.Equal(t, "2025-10-31", end)

	month, err = ParseMonth("2024-02", dhaka)
	require.NoError(t, err)
	start, end = MonthRange(month, dhaka)
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)

	_, err = ParseMonth("October", dhaka)
	assert.Error(t, err)
}

func TestLocation_Fallback(t *testing.T) {
	assert.Equal(t, "Asia/Dhaka", Location("").String())
	assert.Equal(t, time.UTC, Location("Not/AZone"))
}

// ==========================
// Slots
// ==========================

func TestAvailability(t *testing.T) {
	dhaka := Location("Asia/Dhaka")
	mk := func(day, hour int) Slot {
		start := time.Date(2025, 10, day, hour, 0, 0, 0, dhaka)
		return Slot{Start: start, End: start.Add(30 * time.Minute)}
	}

	a := Availability{
		"2025-10-24": {mk(24, 15), mk(24, 10)},
		"2025-10-23": {mk(23, 11)},
		"2025-10-25": {},
	}

	assert.Equal(t, []string{"2025-10-23", "2025-10-24"}, a.SortedDates())
	assert.Equal(t, 3, a.Count())

	slots := a.SlotsOn("2025-10-24")
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].Clock(dhaka))
	assert.Equal(t, "10:00 - 10:30", slots[0].Label(dhaka))
	assert.Equal(t, "15:00", a["2025-10-24"][0].Clock(dhaka), "SlotsOn must not reorder the source")

	clone := a.Clone()
	clone["2025-10-23"][0] = mk(23, 20)
	assert.Equal(t, "11:00", a["2025-10-23"][0].Clock(dhaka))

	assert.Nil(t, Availability(nil).Clone())
}
