// pkg/registry/schema.go
package registry

// SampleSchedule describes locally stored sample availability, used when the
// scheduling service cannot be reached and the user asks for sample times.
type SampleSchedule struct {
	Version       string   `json:"version"`
	LastUpdated   string   `json:"lastUpdated"`
	LengthMinutes int      `json:"lengthMinutes"`
	Weekdays      []string `json:"weekdays"`
	Times         []string `json:"times"`
	Exclude       []string `json:"exclude,omitempty"` // YYYY-MM-DD
}
