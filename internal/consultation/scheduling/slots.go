package scheduling

import (
	"sort"
	"time"
)

// Slot is a bookable interval returned by the scheduling service.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Availability maps "YYYY-MM-DD" date keys to the slots of that day.
type Availability map[string][]Slot

// Clock returns the slot's start as "HH:MM" in loc.
func (s Slot) Clock(loc *time.Location) string {
	return s.Start.In(loc).Format("15:04")
}

// Label renders the slot as "10:00 - 10:30" in loc.
func (s Slot) Label(loc *time.Location) string {
	if s.End.IsZero() {
		return s.Clock(loc)
	}
	return s.Clock(loc) + " - " + s.End.In(loc).Format("15:04")
}

// SortedDates returns the date keys that have at least one slot, ascending.
func (a Availability) SortedDates() []string {
	dates := make([]string, 0, len(a))
	for d, slots := range a {
		if len(slots) > 0 {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}

// SlotsOn returns the slots for date ordered by start time.
func (a Availability) SlotsOn(date string) []Slot {
	slots := append([]Slot(nil), a[date]...)
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

// Count returns the total number of slots.
func (a Availability) Count() int {
	n := 0
	for _, slots := range a {
		n += len(slots)
	}
	return n
}

// Clone copies the map and its slices.
func (a Availability) Clone() Availability {
	if a == nil {
		return nil
	}
	out := make(Availability, len(a))
	for d, slots := range a {
		out[d] = append([]Slot(nil), slots...)
	}
	return out
}
