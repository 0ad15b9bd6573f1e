package session

import (
	"context"
	"fmt"
	"time"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/scheduling"
)

// SlotState is the availability the session has loaded for one month.
type SlotState struct {
	Month time.Time
	Data  scheduling.Availability
	Err   error
	// Fallback marks sample data loaded on request, not real availability.
	Fallback bool
	Loading  bool
}

// Slots returns a copy of the loaded availability.
func (s *Session) Slots() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.slots
	out.Data = s.slots.Data.Clone()
	return out
}

// LoadEventType fetches the bookable event type once per session.
func (s *Session) LoadEventType(ctx context.Context) (gateway.EventType, error) {
	s.mu.Lock()
	if s.eventType != nil {
		et := *s.eventType
		s.mu.Unlock()
		return et, nil
	}
	s.mu.Unlock()

	resp, err := s.deps.Gateway.GetEventTypes(ctx)
	if err != nil {
		return gateway.EventType{}, err
	}
	et, ok := resp.Find(s.cfg.EventTypeSlug)
	if !ok {
		return gateway.EventType{}, fmt.Errorf("%w: slug %q", ErrNoEventType, s.cfg.EventTypeSlug)
	}

	s.mu.Lock()
	s.eventType = &et
	s.mu.Unlock()
	return et, nil
}

// LoadSlots fetches availability for the month containing month in the
// session's time zone. Retryable failures are retried with backoff; after the
// last one Slots().Data is nil and Slots().Err is set.
func (s *Session) LoadSlots(ctx context.Context, month time.Time) error {
	s.mu.Lock()
	tz := s.timezone()
	loc := scheduling.Location(tz)
	s.slots = SlotState{Month: month, Loading: true}
	s.mu.Unlock()

	var resp *gateway.AvailableSlotsResponse
	err := retryWithBackoff(ctx, func() error {
		et, err := s.LoadEventType(ctx)
		if err != nil {
			return err
		}
		start, end := scheduling.MonthRange(month, loc)
		resp, err = s.deps.Gateway.GetAvailableTimes(ctx, gateway.AvailableTimesRequest{
			EventTypeSlug: et.Slug,
			StartDate:     start,
			EndDate:       end,
			Timezone:      tz,
		})
		return err
	}, s.cfg.SlotRetries, s.cfg.RetryDelay, s.log, gateway.OpGetAvailableTimes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timezone() != tz {
		// zone changed while loading, the result is stale
		return nil
	}
	if err != nil {
		slotErr := apperrors.NewSlotsUnavailableError(month.In(loc).Format("2006-01"), err)
		s.slots = SlotState{Month: month, Err: slotErr}
		return slotErr
	}

	data := resp.Slots.Data
	if data == nil {
		data = scheduling.Availability{}
	}
	s.slots = SlotState{Month: month, Data: data}
	return nil
}

// UseSampleSlots replaces the availability with locally stored sample times
// for the last requested month. Picks made from them cannot be submitted.
func (s *Session) UseSampleSlots() error {
	if s.deps.Samples == nil {
		return fmt.Errorf("no sample slots configured")
	}

	s.mu.Lock()
	month := s.slots.Month
	if month.IsZero() {
		month = s.deps.Now()
	}
	loc := scheduling.Location(s.timezone())
	s.mu.Unlock()

	data, err := s.deps.Samples.Slots(month, loc)
	if err != nil {
		return fmt.Errorf("load sample slots: %w", err)
	}

	s.mu.Lock()
	s.slots = SlotState{Month: month, Data: data, Fallback: true}
	s.mu.Unlock()
	s.log.Warn("Using sample slots", map[string]interface{}{
		"month": month.In(loc).Format("2006-01"),
	})
	return nil
}

// retryWithBackoff runs operation until it succeeds or its error has used up
// its attempts (at most maxRetries), doubling the delay after each failure.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	delay := initialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		limit := apperrors.Attempts(err, maxRetries)
		if limit == 1 && attempt == 1 {
			return err
		}
		if attempt >= limit {
			return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  limit,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
