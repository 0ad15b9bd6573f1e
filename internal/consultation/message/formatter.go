// Package message renders wizard answers as the plain-text blocks the backend
// emails to the consultant.
package message

import (
	"fmt"
	"strconv"
	"strings"

	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/scheduling"
)

const notAvailable = "N/A"

// Field labels, in message order.
const (
	LabelFullName       = "Full Name"
	LabelEmail          = "Email Address"
	LabelPhone          = "Mobile/WhatsApp"
	LabelReferralSource = "Where did you hear about us?"
	LabelCompanyName    = "Company Name"
	LabelBusinessType   = "Business Type/Industry"
	LabelWebsite        = "Website"
	LabelHasDoneSEO     = "Have you done SEO before?"
	LabelGoals          = "What's your primary goal?"
	LabelServiceTeam    = "Choose the Service You're Looking For"
	LabelScheduled      = "Meeting Scheduled"
	LabelMeetingTime    = "Meeting Time"
)

type line struct {
	label string
	value string
}

// ToMessage renders every field as "Label: value" lines in a fixed order.
func ToMessage(data form.FormData) string {
	lines := stepLines(data, form.StepServiceNeeds)

	scheduled := "No"
	meeting := notAvailable
	if data.Scheduled() {
		scheduled = "Yes"
		meeting = meetingTime(data)
	}
	lines = append(lines, line{LabelScheduled, scheduled}, line{LabelMeetingTime, meeting})

	return render(lines)
}

// ToPartialMessage renders the notice for an abandoned session followed by
// the fields of steps 1..step only. Scheduling fields are never included.
func ToPartialMessage(data form.FormData, step form.Step) string {
	var b strings.Builder
	b.WriteString(StepNotice(step))
	if fields := render(stepLines(data, step)); fields != "" {
		b.WriteString("\n\n")
		b.WriteString(fields)
	}
	return b.String()
}

// StepNotice is the first line of a partial capture message.
func StepNotice(step form.Step) string {
	switch step {
	case form.StepPersonalInfo, form.StepBusinessInfo, form.StepServiceNeeds:
		return fmt.Sprintf("User completed %s step but didn't continue.", step)
	case form.StepSchedule:
		return fmt.Sprintf("User completed %s step but didn't submit.", step)
	default:
		return fmt.Sprintf("User reached step %d but didn't complete the form.", int(step))
	}
}

// ToContactEmail builds the body of the final notification.
func ToContactEmail(data form.FormData) gateway.ContactEmailRequest {
	return gateway.ContactEmailRequest{
		Name:    data.FullName,
		Email:   data.Email,
		Message: ToMessage(data),
	}
}

// ToPartialPayload builds the body of a partial capture. There is no budget
// question in this wizard so budget is always "N/A".
func ToPartialPayload(data form.FormData, step form.Step) gateway.PartialFormRequest {
	service := notAvailable
	if step >= form.StepServiceNeeds {
		service = orNA(ServiceTeams.Label(data.ServiceTeam))
	}
	return gateway.PartialFormRequest{
		Email:       data.Email,
		Name:        data.FullName,
		Service:     service,
		Budget:      notAvailable,
		CurrentStep: strconv.Itoa(int(step)),
		Message:     ToPartialMessage(data, step),
	}
}

// GoalLabels translates goal ids in selection order.
func GoalLabels(goals []string) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		out = append(out, Goals.Label(g))
	}
	return out
}

func stepLines(data form.FormData, upTo form.Step) []line {
	var lines []line
	if upTo >= form.StepPersonalInfo {
		lines = append(lines,
			line{LabelFullName, orNA(data.FullName)},
			line{LabelEmail, orNA(data.Email)},
			line{LabelPhone, orNA(data.Phone)},
			line{LabelReferralSource, orNA(ReferralSources.Label(data.ReferralSource))},
		)
	}
	if upTo >= form.StepBusinessInfo {
		lines = append(lines,
			line{LabelCompanyName, orNA(data.CompanyName)},
			line{LabelBusinessType, orNA(data.BusinessType)},
			line{LabelWebsite, orNA(data.Website)},
			line{LabelHasDoneSEO, orNA(data.HasDoneSEO)},
		)
	}
	if upTo >= form.StepServiceNeeds {
		lines = append(lines,
			line{LabelGoals, orNA(strings.Join(GoalLabels(data.Goals), ", "))},
			line{LabelServiceTeam, orNA(ServiceTeams.Label(data.ServiceTeam))},
		)
	}
	return lines
}

func meetingTime(data form.FormData) string {
	tz := data.TimeZone
	if tz == "" {
		tz = scheduling.DefaultTimezone
	}
	day := data.SelectedDate.In(scheduling.Location(tz)).Format("Monday, Jan 2, 2006")
	return fmt.Sprintf("%s at %s (%s)", day, data.SelectedTime, tz)
}

func render(lines []line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.label+": "+l.value)
	}
	return strings.Join(parts, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
