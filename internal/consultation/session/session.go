// Package session is the booking wizard core: it owns the form state and the
// current step, gates forward navigation, runs the submission protocol and
// sends at most one partial capture when the user leaves early.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/common/observability"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/scheduling"

	"github.com/google/uuid"
)

var (
	ErrSessionConfirmed    = errors.New("session already confirmed")
	ErrSubmissionInFlight  = errors.New("submission already in progress")
	ErrFallbackSlot        = errors.New("sample times cannot be booked, reload available times")
	ErrNoEventType         = errors.New("no bookable event type")
	ErrUnsupportedTimeZone = errors.New("unsupported time zone")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusCollecting Status = "collecting"
	StatusSubmitting Status = "submitting"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
)

// Submission states.
const (
	SubmissionIdle       = "idle"
	SubmissionSubmitting = "submitting"
	SubmissionSucceeded  = "succeeded"
	SubmissionFailed     = "failed"
)

// Submission describes the outcome of the last Submit.
type Submission struct {
	State string
	// Reason is the text to show the user when State is failed.
	Reason string
	Err    error
	// Booked reports whether the booking already exists, so a retry only
	// resends the email.
	Booked bool
}

// Gateway is the subset of the backend client the session uses.
type Gateway interface {
	SendContactEmail(ctx context.Context, req gateway.ContactEmailRequest) error
	SendPartialFormData(ctx context.Context, req gateway.PartialFormRequest) error
	GetEventTypes(ctx context.Context) (*gateway.EventTypesResponse, error)
	GetAvailableTimes(ctx context.Context, req gateway.AvailableTimesRequest) (*gateway.AvailableSlotsResponse, error)
	CreateCalcomBooking(ctx context.Context, req gateway.BookingRequest, idempotencyKey string) (*gateway.BookingResponse, error)
}

// SampleSource expands locally stored sample availability for a month.
type SampleSource interface {
	Slots(month time.Time, loc *time.Location) (scheduling.Availability, error)
}

type Deps struct {
	Gateway       Gateway
	Ledger        BookingLedger
	Samples       SampleSource
	Logger        logger.Logger
	Observability *observability.Observability
	Now           func() time.Time
}

type Session struct {
	mu sync.Mutex

	id             string
	idempotencyKey string
	cfg            *Config
	deps           Deps
	log            logger.Logger

	data        form.FormData
	step        form.Step
	stepEntered time.Time
	status      Status
	submission  Submission
	inFlight    bool
	warnings    map[string]string

	partialSent bool
	ended       bool // no longer counted in the active gauge
	eventType   *gateway.EventType
	slots       SlotState

	// fallbackPick marks a schedule chosen from sample slots.
	fallbackPick bool

	background sync.WaitGroup
}

func New(deps Deps, cfg *Config) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg = cfg.withDefaults()
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Ledger == nil {
		deps.Ledger = NewMemoryLedger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	id := uuid.NewString()
	s := &Session{
		id:             id,
		idempotencyKey: uuid.NewString(),
		cfg:            cfg,
		deps:           deps,
		log:            deps.Logger.Named("session").WithFields(map[string]interface{}{"sessionId": id}),
		data:           form.FormData{TimeZone: cfg.DefaultTimezone},
		step:           form.StepPersonalInfo,
		stepEntered:    deps.Now(),
		status:         StatusCollecting,
		submission:     Submission{State: SubmissionIdle},
		warnings:       map[string]string{},
	}
	metrics.SessionsActive.Inc()
	s.log.Debug("Session started", nil)
	return s
}

func (s *Session) ID() string { return s.id }

// IdempotencyKey is the token sent with the booking request.
func (s *Session) IdempotencyKey() string { return s.idempotencyKey }

func (s *Session) CurrentStep() form.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Submission() Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submission
}

// FormData returns a copy of the collected answers.
func (s *Session) FormData() form.FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// FieldWarnings returns non-blocking warnings keyed by field, such as a phone
// number that was clamped to the allowed length.
func (s *Session) FieldWarnings() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.warnings))
	for k, v := range s.warnings {
		out[k] = v
	}
	return out
}

// Drain waits for detached background work such as a partial capture.
func (s *Session) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the session without sending anything. Confirmed and
// abandoned sessions are already released.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end()
}

// end marks the session inactive once. Callers hold mu.
func (s *Session) end() {
	if s.ended {
		return
	}
	s.ended = true
	metrics.SessionsActive.Dec()
}

// editable reports why edits are not allowed right now. Callers hold mu.
func (s *Session) editable() error {
	if s.status == StatusConfirmed {
		return ErrSessionConfirmed
	}
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	return nil
}

// moveTo changes step and records the transition. Callers hold mu.
func (s *Session) moveTo(to form.Step, direction string) {
	from := s.step
	now := s.deps.Now()
	ctx := context.Background()
	s.deps.Observability.RecordStepDuration(ctx, int(from), now.Sub(s.stepEntered))
	s.deps.Observability.RecordStepTransition(ctx, int(from), int(to), direction)
	s.step = to
	s.stepEntered = now
	s.log.Debug("Step changed", map[string]interface{}{
		"from":      from.String(),
		"to":        to.String(),
		"direction": direction,
	})
}

func (s *Session) timezone() string {
	if s.data.TimeZone != "" {
		return s.data.TimeZone
	}
	return s.cfg.DefaultTimezone
}
