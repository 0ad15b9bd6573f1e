package session

import (
	"context"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/consultation/message"
)

// Abandon marks the session as left and sends one best-effort partial capture
// in the background, reporting whether it fired. It never fires twice, never
// after confirmation, never while a submission is in flight and never without
// name and email.
func (s *Session) Abandon(reason string) bool {
	s.mu.Lock()
	s.end()
	if s.partialSent || s.status == StatusConfirmed || s.inFlight || !s.data.HasContact() {
		s.mu.Unlock()
		return false
	}
	s.partialSent = true
	step := s.step
	payload := message.ToPartialPayload(s.data, step)
	s.mu.Unlock()

	log := s.log.WithFields(map[string]interface{}{
		"step":   step.String(),
		"reason": reason,
	})

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PartialCaptureTimeout)
		defer cancel()

		if err := s.deps.Gateway.SendPartialFormData(ctx, payload); err != nil {
			std := apperrors.NewPartialCaptureFailedError(err)
			metrics.SessionPartialCaptures.WithLabelValues(step.String(), "failed").Inc()
			log.Warn("Partial capture failed", map[string]interface{}{
				"code":  std.Code,
				"cause": std.Metadata["cause"],
				"error": err.Error(),
			})
			return
		}
		metrics.SessionPartialCaptures.WithLabelValues(step.String(), "sent").Inc()
		log.Info("Partial capture sent", nil)
	}()
	return true
}
