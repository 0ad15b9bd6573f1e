package session

import (
	"strings"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/validation"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/message"
)

// validateStep checks the required fields of step. It returns nil or a
// *errors.ValidationError keyed by the JSON field name.
func (s *Session) validateStep(step form.Step, data form.FormData) error {
	fields := map[string]string{}

	switch step {
	case form.StepPersonalInfo:
		if strings.TrimSpace(data.FullName) == "" {
			fields["fullName"] = "Full name is required"
		}
		if !validation.ValidateEmail(data.Email) {
			fields["email"] = "Please enter a valid email address"
		}
		if err := s.cfg.Phone.Validate(data.Phone); err != nil {
			fields["phone"] = err.Error()
		}
		if data.ReferralSource == "" {
			fields["referralSource"] = "Please select where you heard about us"
		}

	case form.StepBusinessInfo:
		if strings.TrimSpace(data.CompanyName) == "" {
			fields["companyName"] = "Company name is required"
		}
		if data.BusinessType == "" {
			fields["businessType"] = "Please select your business type"
		}
		if !message.SEOExperience.Contains(data.HasDoneSEO) {
			fields["hasDoneSEO"] = "Please select whether you have done SEO before"
		}

	case form.StepServiceNeeds:
		if len(data.Goals) == 0 {
			fields["goals"] = "Please select at least one goal"
		}
		if data.ServiceTeam == "" {
			fields["serviceTeam"] = "Please select a service"
		}

	case form.StepSchedule:
		if data.SelectedDate == nil {
			fields["selectedDate"] = "Please select a date"
		}
		if data.SelectedTime == "" {
			fields["selectedTime"] = "Please select a time"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return apperrors.NewValidationError(step.String(), fields)
}

// Validate checks the current step without moving.
func (s *Session) Validate() error {
	s.mu.Lock()
	step, data := s.step, s.data.Clone()
	s.mu.Unlock()
	return s.validateStep(step, data)
}
