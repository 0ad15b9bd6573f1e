// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"consultation-booking/internal/consultation/scheduling"
)

//go:embed samples.json
var defaultSamples []byte

// LoadRegistry reads a sample schedule from path, or the built-in one when
// path is empty.
func LoadRegistry(path string) (*SampleSchedule, error) {
	data := defaultSamples
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var reg SampleSchedule
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse sample schedule: %w", err)
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *SampleSchedule) validate() error {
	if s.LengthMinutes <= 0 {
		return fmt.Errorf("sample schedule: lengthMinutes must be positive")
	}
	if len(s.Times) == 0 {
		return fmt.Errorf("sample schedule: no times")
	}
	for _, wd := range s.Weekdays {
		if _, ok := parseWeekday(wd); !ok {
			return fmt.Errorf("sample schedule: unknown weekday %q", wd)
		}
	}
	for _, t := range s.Times {
		if _, err := scheduling.To24Hour(t); err != nil {
			return fmt.Errorf("sample schedule: %w", err)
		}
	}
	return nil
}

// Slots expands the schedule over the month containing month, in loc.
func (s *SampleSchedule) Slots(month time.Time, loc *time.Location) (scheduling.Availability, error) {
	days := make(map[time.Weekday]bool, len(s.Weekdays))
	for _, wd := range s.Weekdays {
		d, _ := parseWeekday(wd)
		days[d] = true
	}
	excluded := make(map[string]bool, len(s.Exclude))
	for _, d := range s.Exclude {
		excluded[d] = true
	}

	m := month.In(loc)
	first := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
	length := time.Duration(s.LengthMinutes) * time.Minute

	out := scheduling.Availability{}
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if !days[day.Weekday()] || excluded[key] {
			continue
		}
		for _, t := range s.Times {
			clock, err := scheduling.To24Hour(t)
			if err != nil {
				return nil, err
			}
			start, err := time.ParseInLocation("2006-01-02 15:04", key+" "+clock, loc)
			if err != nil {
				return nil, err
			}
			out[key] = append(out[key], scheduling.Slot{Start: start, End: start.Add(length)})
		}
	}
	return out, nil
}

// Samples loads the sample schedule lazily and expands it per month.
type Samples struct {
	path string
}

func NewSamples(path string) *Samples {
	return &Samples{path: path}
}

func (s *Samples) Slots(month time.Time, loc *time.Location) (scheduling.Availability, error) {
	reg, err := LoadRegistry(s.path)
	if err != nil {
		return nil, err
	}
	return reg.Slots(month, loc)
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, true
		}
	}
	return 0, false
}
