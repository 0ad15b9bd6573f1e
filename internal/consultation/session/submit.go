package session

import (
	"context"
	"errors"
	"fmt"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/message"
	"consultation-booking/internal/consultation/scheduling"
)

// Next validates the current step and moves forward. On the last step it
// submits instead.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	step := s.step
	if err := s.validateStep(step, s.data); err != nil {
		s.mu.Unlock()
		s.log.Debug("Step validation failed", map[string]interface{}{
			"step":  step.String(),
			"error": err.Error(),
		})
		return err
	}
	if step >= form.StepCount {
		s.mu.Unlock()
		return s.Submit(ctx)
	}
	s.moveTo(step+1, "next")
	s.mu.Unlock()
	return nil
}

// Back moves one step back without validation. Nothing is cleared.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.status == StatusFailed {
		s.status = StatusCollecting
	}
	if s.step <= form.StepPersonalInfo {
		return nil
	}
	s.moveTo(s.step-1, "back")
	return nil
}

// Submit creates the booking, then sends the contact email. The booking is
// created at most once per session: after it succeeds, a retry only resends
// the email.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	for step := form.StepPersonalInfo; step <= form.StepCount; step++ {
		if err := s.validateStep(step, s.data); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if s.fallbackPick {
		s.mu.Unlock()
		return ErrFallbackSlot
	}

	s.inFlight = true
	s.status = StatusSubmitting
	booked := s.submission.Booked
	s.submission = Submission{State: SubmissionSubmitting, Booked: booked}
	data := s.data.Clone()
	s.mu.Unlock()

	ctx, span := s.deps.Observability.StartSpan(ctx, "session.submit")
	defer span.End()

	booked, err := s.submit(ctx, data, booked)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		std := apperrors.ToStandardError(err)
		s.status = StatusFailed
		s.submission = Submission{
			State:  SubmissionFailed,
			Reason: apperrors.UserMessage(err),
			Err:    err,
			Booked: booked,
		}
		metrics.SessionSubmissions.WithLabelValues("failed").Inc()
		s.log.Error("Submission failed", map[string]interface{}{
			"code":     std.Code,
			"category": apperrors.GetErrorCategory(std.Code),
			"cause":    std.Metadata["cause"],
			"booked":   booked,
			"error":    err.Error(),
		})
		return err
	}

	s.status = StatusConfirmed
	s.submission = Submission{State: SubmissionSucceeded, Booked: true}
	s.deps.Observability.RecordStepTransition(ctx, int(s.step), int(s.step), "submit")
	metrics.SessionSubmissions.WithLabelValues("succeeded").Inc()
	s.end()
	s.log.Info("Submission confirmed", map[string]interface{}{
		"step": s.step.String(),
	})
	return nil
}

// submit runs the two calls in order and reports whether the booking exists.
func (s *Session) submit(ctx context.Context, data form.FormData, booked bool) (bool, error) {
	if !booked {
		rec, err := s.deps.Ledger.Lookup(ctx, s.idempotencyKey)
		if err != nil {
			return false, err
		}
		booked = rec != nil
	}

	if !booked {
		var err error
		if booked, err = s.book(ctx, data); err != nil {
			return booked, err
		}
	} else {
		s.log.Info("Booking already created, skipping", map[string]interface{}{
			"idempotencyKey": s.idempotencyKey,
		})
	}

	if err := s.deps.Gateway.SendContactEmail(ctx, message.ToContactEmail(data)); err != nil {
		return booked, apperrors.NewEmailSendFailedError(err)
	}
	return booked, nil
}

// book creates the booking and reports whether the backend accepted it. A 2xx
// with an unreadable body counts as accepted: the error is still returned, but
// the booking is recorded so a retry does not create it again.
func (s *Session) book(ctx context.Context, data form.FormData) (bool, error) {
	eventType, err := s.LoadEventType(ctx)
	if err != nil {
		return false, err
	}

	tz := data.TimeZone
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	startTime, err := scheduling.FormatStartTime(*data.SelectedDate, data.SelectedTime, tz)
	if err != nil {
		return false, fmt.Errorf("format start time: %w", err)
	}

	req := gateway.BookingRequest{
		Name:        data.FullName,
		Email:       data.Email,
		TimeZone:    tz,
		StartTime:   startTime,
		EventTypeID: eventType.ID,
	}
	_, bookErr := s.deps.Gateway.CreateCalcomBooking(ctx, req, s.idempotencyKey)
	if bookErr != nil {
		var malformed *apperrors.MalformedResponseError
		if !errors.As(bookErr, &malformed) {
			return false, apperrors.NewBookingFailedError(bookErr)
		}
		s.log.Warn("Booking accepted with unreadable response", map[string]interface{}{
			"idempotencyKey": s.idempotencyKey,
			"error":          bookErr.Error(),
		})
	}

	s.mu.Lock()
	s.submission.Booked = true
	s.mu.Unlock()

	rec := BookingRecord{
		IdempotencyKey: s.idempotencyKey,
		SessionID:      s.id,
		StartTime:      startTime,
		EventTypeID:    eventType.ID,
		CreatedAt:      s.deps.Now().UTC(),
	}
	if err := s.deps.Ledger.Record(ctx, rec); err != nil {
		// the session flag still guards this process
		s.log.Warn("Failed to record booking", map[string]interface{}{
			"idempotencyKey": s.idempotencyKey,
			"error":          err.Error(),
		})
	}
	if bookErr != nil {
		return true, apperrors.NewBookingFailedError(bookErr)
	}
	s.log.Info("Booking created", map[string]interface{}{
		"startTime":   startTime,
		"eventTypeId": eventType.ID,
	})
	return true, nil
}
