package form

// GoalOther is the primary goal id that takes a free-text goal instead.
const GoalOther = "other"

// ContactForm is the single-page contact form sent straight to the
// consultant without booking a meeting.
type ContactForm struct {
	FullName         string   `json:"fullName"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	Services         []string `json:"services"`
	PrimaryGoal      string   `json:"primaryGoal"`
	OtherGoal        string   `json:"otherGoal"`
	WebsiteURL       string   `json:"websiteUrl"`
	BudgetRange      string   `json:"budgetRange"`
	HowHeard         string   `json:"howHeard"`
	PrivacyAgreement bool     `json:"privacyAgreement"`
}

// Goal returns the goal to report: the free-text goal when "other" is chosen.
func (c ContactForm) Goal() string {
	if c.PrimaryGoal == GoalOther {
		return c.OtherGoal
	}
	return c.PrimaryGoal
}
