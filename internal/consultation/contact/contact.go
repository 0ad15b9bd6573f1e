// Package contact sends the single-page contact form, the alternative to the
// booking wizard for visitors who only want to be called back.
package contact

import (
	"context"
	"strings"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/common/observability"
	"consultation-booking/internal/common/validation"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/message"
	"consultation-booking/internal/consultation/phone"
)

// FormName is the step name carried by contact form validation errors.
const FormName = "Contact Form"

// Gateway is the one backend call the contact form needs.
type Gateway interface {
	SendContactEmail(ctx context.Context, req gateway.ContactEmailRequest) error
}

type Service struct {
	gateway Gateway
	phone   phone.Normalizer
	obs     *observability.Observability
	log     logger.Logger
}

func NewService(gw Gateway, norm phone.Normalizer, obs *observability.Observability, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		gateway: gw,
		phone:   norm,
		obs:     obs,
		log:     log.Named("contact"),
	}
}

// NormalizePhone canonicalizes a typed phone number and returns the warning
// to show next to the field, if any.
func (s *Service) NormalizePhone(raw string) (string, string) {
	res := s.phone.Normalize(raw, "")
	return res.Value, res.Error
}

// Validate checks every field at once. It returns nil or a
// *errors.ValidationError keyed by the JSON field name.
func (s *Service) Validate(c form.ContactForm) error {
	fields := map[string]string{}

	if strings.TrimSpace(c.FullName) == "" {
		fields["fullName"] = "Full Name is required."
	}
	switch {
	case strings.TrimSpace(c.Email) == "":
		fields["email"] = "Email Address is required."
	case !validation.ValidateEmail(c.Email):
		fields["email"] = "Please enter a valid email address."
	}
	switch national := s.phone.NationalDigits(c.Phone); {
	case national == "":
		fields["phone"] = "Phone Number is required."
	case len(national) != s.phone.MaxDigits:
		fields["phone"] = s.phone.LengthMessage()
	}
	if len(c.Services) == 0 {
		fields["services"] = "Please select at least one service."
	}
	switch {
	case c.PrimaryGoal == "":
		fields["primaryGoal"] = "Primary Goal is required."
	case c.PrimaryGoal == form.GoalOther && strings.TrimSpace(c.OtherGoal) == "":
		fields["otherGoal"] = "Please specify your goal."
	}
	if c.BudgetRange == "" {
		fields["budgetRange"] = "Monthly Budget Range is required."
	}
	if !c.PrivacyAgreement {
		fields["privacyAgreement"] = "You must agree to the Privacy Policy."
	}

	if len(fields) == 0 {
		return nil
	}
	return apperrors.NewValidationError(FormName, fields)
}

// Submit normalizes the phone, validates the form and sends it. Nothing is
// sent when validation fails.
func (s *Service) Submit(ctx context.Context, c form.ContactForm) error {
	c.Phone, _ = s.NormalizePhone(c.Phone)
	if err := s.Validate(c); err != nil {
		s.log.Debug("Contact form validation failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	ctx, span := s.obs.StartSpan(ctx, "contact.submit")
	defer span.End()

	if err := s.gateway.SendContactEmail(ctx, message.ToContactFormEmail(c)); err != nil {
		err = apperrors.NewEmailSendFailedError(err)
		std := apperrors.ToStandardError(err)
		metrics.ContactFormSubmissions.WithLabelValues("failed").Inc()
		s.log.Error("Contact form submission failed", map[string]interface{}{
			"code":  std.Code,
			"cause": std.Metadata["cause"],
			"error": err.Error(),
		})
		return err
	}

	metrics.ContactFormSubmissions.WithLabelValues("succeeded").Inc()
	s.log.Info("Contact form sent", map[string]interface{}{
		"services": c.Services,
		"budget":   c.BudgetRange,
	})
	return nil
}
