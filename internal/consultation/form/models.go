// Package form holds the answers collected by the booking wizard.
package form

import (
	"fmt"
	"time"
)

// Step identifies one screen of the wizard.
type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepBusinessInfo
	StepServiceNeeds
	StepSchedule
)

// StepCount is the number of configured steps. StepSchedule is the last one.
const StepCount = 4

var stepNames = map[Step]string{
	StepPersonalInfo: "Personal Info",
	StepBusinessInfo: "Business Info",
	StepServiceNeeds: "Service Needs",
	StepSchedule:     "Schedule Meeting",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step %d", int(s))
}

func (s Step) Valid() bool {
	return s >= StepPersonalInfo && s <= StepSchedule
}

// SEO experience answers.
const (
	SEOYes     = "yes"
	SEONo      = "no"
	SEONotSure = "not-sure"
)

// FormData is the single mutable aggregate of one booking attempt.
type FormData struct {
	// Personal Info
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ReferralSource string `json:"referralSource"`

	// Business Info
	CompanyName  string `json:"companyName"`
	BusinessType string `json:"businessType"`
	Website      string `json:"website"`
	HasDoneSEO   string `json:"hasDoneSEO"`

	// Service Needs
	Goals       []string `json:"goals"`
	ServiceTeam string   `json:"serviceTeam"`

	// Schedule Meeting
	SelectedDate *time.Time `json:"selectedDate"`
	SelectedTime string     `json:"selectedTime"` // "HH:MM", 24-hour
	TimeZone     string     `json:"timeZone"`
}

// Clone returns a deep copy.
func (f FormData) Clone() FormData {
	out := f
	if f.Goals != nil {
		out.Goals = append([]string(nil), f.Goals...)
	}
	if f.SelectedDate != nil {
		d := *f.SelectedDate
		out.SelectedDate = &d
	}
	return out
}

// Scheduled reports whether both date and time are chosen.
func (f FormData) Scheduled() bool {
	return f.SelectedDate != nil && f.SelectedTime != ""
}

// HasContact reports whether enough is known to send a partial capture.
func (f FormData) HasContact() bool {
	return f.FullName != "" && f.Email != ""
}
