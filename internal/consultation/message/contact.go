package message

import (
	"strings"

	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
)

const (
	LabelPrimaryGoal = "Primary Goal"
	LabelBudget      = "Budget Range"
	LabelServices    = "Services Interested In"
)

// ToContactFormMessage renders a contact form submission. Optional answers
// left empty are spelled out rather than shown as "N/A".
func ToContactFormMessage(c form.ContactForm) string {
	website := c.WebsiteURL
	if strings.TrimSpace(website) == "" {
		website = "Not provided"
	}
	heard := HowHeard.Label(c.HowHeard)
	if heard == "" {
		heard = "Not specified"
	}
	goal := c.Goal()
	if c.PrimaryGoal != form.GoalOther {
		goal = ContactGoals.Label(goal)
	}

	services := make([]string, 0, len(c.Services))
	for _, id := range c.Services {
		services = append(services, ContactServices.Label(id))
	}

	return render([]line{
		{LabelFullName, c.FullName},
		{LabelEmail, c.Email},
		{LabelPhone, c.Phone},
		{LabelWebsite, website},
		{LabelReferralSource, heard},
		{LabelPrimaryGoal, goal},
		{LabelBudget, BudgetRanges.Label(c.BudgetRange)},
		{LabelServices, strings.Join(services, ", ")},
	})
}

// ToContactFormEmail builds the notification for a contact form submission.
func ToContactFormEmail(c form.ContactForm) gateway.ContactEmailRequest {
	return gateway.ContactEmailRequest{
		Name:    c.FullName,
		Email:   c.Email,
		Message: ToContactFormMessage(c),
	}
}
