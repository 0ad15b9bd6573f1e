package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/scheduling"
	"consultation-booking/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const eventTypesBody = `{"eventTypes":{"status":"success","data":{"eventTypeGroups":[{"eventTypes":[
  {"id": 101, "slug": "30min", "length": 30, "title": "30 Min Meeting", "owner": {"timeZone": "Asia/Dhaka"}}
]}]}}}`

const slotsBody = `{"slots":{"status":"success","data":{
  "2025-10-15": [{"start": "2025-10-15T14:00:00.000Z", "end": "2025-10-15T14:30:00.000Z"}],
  "2025-10-16": [{"start": "2025-10-16T04:00:00.000Z", "end": "2025-10-16T04:30:00.000Z"}]
}}}`

type request struct {
	Headers http.Header
	Body    []byte
}

// fakeBackend serves the booking API. Handlers default to success and can be
// replaced per path.
type fakeBackend struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests map[string][]request
	server   *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		handlers: map[string]http.HandlerFunc{
			"/api/getEventTypes":       jsonHandler(http.StatusOK, eventTypesBody),
			"/api/getAvailableTimes":   jsonHandler(http.StatusOK, slotsBody),
			"/api/createCalcomBooking": jsonHandler(http.StatusOK, `{"message":"booked"}`),
			"/api/sendContactEmail":    jsonHandler(http.StatusOK, `{"message":"sent"}`),
			"/api/sendPartialFormData": jsonHandler(http.StatusOK, `{"message":"sent"}`),
		},
		requests: map[string][]request{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests[r.URL.Path] = append(b.requests[r.URL.Path], request{Headers: r.Header.Clone(), Body: body})
		h := b.handlers[r.URL.Path]
		b.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

func (b *fakeBackend) calls(path string) []request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]request(nil), b.requests[path]...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func createTestConfig() *Config {
	return &Config{
		DefaultTimezone:       "Asia/Dhaka",
		SlotRetries:           2,
		RetryDelay:            time.Millisecond,
		PartialCaptureTimeout: 2 * time.Second,
	}
}

func newTestSession(t *testing.T, b *fakeBackend, ledger BookingLedger) *Session {
	t.Helper()
	log := logger.NewTestLogger(t)
	client := gateway.NewClient(&gateway.Config{BaseURL: b.server.URL, Timeout: 5 * time.Second}, log)
	s := New(Deps{
		Gateway: client,
		Ledger:  ledger,
		Samples: registry.NewSamples(""),
		Logger:  log,
		Now: func() time.Time {
			return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
		},
	}, createTestConfig())
	t.Cleanup(func() {
		_ = s.Drain(context.Background())
	})
	return s
}

func dhaka(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)
	return loc
}

func fillPersonalInfo(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Update(func(f *form.FormData) {
		f.FullName = "Jane Doe"
		f.Email = "jane@x.com"
		f.ReferralSource = "google"
	}))
	warning, err := s.SetPhone("+880 1712-345678")
	require.NoError(t, err)
	require.Empty(t, warning)
}

func fillAll(t *testing.T, s *Session) {
	t.Helper()
	fillPersonalInfo(t, s)
	require.NoError(t, s.Update(func(f *form.FormData) {
		f.CompanyName = "Acme"
		f.BusinessType = "saas"
		f.HasDoneSEO = form.SEONo
		f.Goals = []string{"online-sales", "brand-awareness"}
		f.ServiceTeam = "local-seo"
	}))
	start := time.Date(2025, 10, 15, 20, 0, 0, 0, dhaka(t))
	require.NoError(t, s.SelectSlot(scheduling.Slot{Start: start, End: start.Add(30 * time.Minute)}))
}

// ==========================
// Navigation Tests
// ==========================

func TestSession_NextRejectsEmptyName(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	require.NoError(t, s.Update(func(f *form.FormData) {
		f.Email = "jane@x.com"
		f.ReferralSource = "google"
	}))
	_, err := s.SetPhone("+8801712345678")
	require.NoError(t, err)
	before := s.FormData()

	err = s.Next(context.Background())

	var invalid *apperrors.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Full name is required", invalid.Field("fullName"))
	assert.Len(t, invalid.Fields, 1)
	assert.Equal(t, form.StepPersonalInfo, s.CurrentStep())
	assert.Equal(t, before, s.FormData())
}

func TestSession_PersonalInfoAdvances(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	fillPersonalInfo(t, s)

	assert.Equal(t, "+8801712345678", s.FormData().Phone)
	require.NoError(t, s.Next(context.Background()))
	assert.Equal(t, form.StepBusinessInfo, s.CurrentStep())
}

func TestSession_StepValidation(t *testing.T) {
	tests := []struct {
		name   string
		step   form.Step
		edit   func(*form.FormData)
		fields []string
	}{
		{
			name:   "personal info empty",
			step:   form.StepPersonalInfo,
			edit:   func(f *form.FormData) {},
			fields: []string{"fullName", "email", "phone", "referralSource"},
		},
		{
			name: "bad email and short phone",
			step: form.StepPersonalInfo,
			edit: func(f *form.FormData) {
				f.FullName = "Jane"
				f.Email = "jane@x"
				f.Phone = "+880171234"
				f.ReferralSource = "ai"
			},
			fields: []string{"email", "phone"},
		},
		{
			name: "business info unknown seo answer",
			step: form.StepBusinessInfo,
			edit: func(f *form.FormData) {
				f.CompanyName = "Acme"
				f.BusinessType = "saas"
				f.HasDoneSEO = "maybe"
			},
			fields: []string{"hasDoneSEO"},
		},
		{
			name: "business info website optional",
			step: form.StepBusinessInfo,
			edit: func(f *form.FormData) {
				f.CompanyName = "Acme"
				f.BusinessType = "saas"
				f.HasDoneSEO = form.SEONotSure
			},
		},
		{
			name:   "service needs empty",
			step:   form.StepServiceNeeds,
			edit:   func(f *form.FormData) {},
			fields: []string{"goals", "serviceTeam"},
		},
		{
			name:   "schedule empty",
			step:   form.StepSchedule,
			edit:   func(f *form.FormData) {},
			fields: []string{"selectedDate", "selectedTime"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, newFakeBackend(t), nil)
			data := form.FormData{}
			tt.edit(&data)

			err := s.validateStep(tt.step, data)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var invalid *apperrors.ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Len(t, invalid.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.NotEmpty(t, invalid.Field(f), f)
			}
		})
	}
}

func TestSession_BackPreservesData(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	fillPersonalInfo(t, s)
	require.NoError(t, s.Next(context.Background()))
	require.NoError(t, s.Update(func(f *form.FormData) { f.CompanyName = "Acme" }))

	require.NoError(t, s.Back())
	assert.Equal(t, form.StepPersonalInfo, s.CurrentStep())
	assert.Equal(t, "Acme", s.FormData().CompanyName)
	assert.Equal(t, "Jane Doe", s.FormData().FullName)

	// no-op on the first step
	require.NoError(t, s.Back())
	assert.Equal(t, form.StepPersonalInfo, s.CurrentStep())
}

// ==========================
// Edit Tests
// ==========================

func TestSession_ApplyPatchNormalizesPhone(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	require.NoError(t, s.ApplyPatch([]byte(`{"fullName":"Jane Doe","phone":"880-01712-3456789"}`)))

	data := s.FormData()
	assert.Equal(t, "Jane Doe", data.FullName)
	assert.Equal(t, "+8801712345678", data.Phone)
	assert.Equal(t, "Phone number must be exactly 10 digits", s.FieldWarnings()["phone"])
	assert.Equal(t, "Asia/Dhaka", data.TimeZone)

	require.NoError(t, s.ApplyPatch([]byte(`{"phone":"+8801712345679"}`)))
	assert.Equal(t, "+8801712345679", s.FormData().Phone)
	assert.NotContains(t, s.FieldWarnings(), "phone")

	assert.Error(t, s.ApplyPatch([]byte(`not json`)))
}

func TestSession_SetPhoneForeignNumberKept(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	warning, err := s.SetPhone("+1 (415) 555-0100")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "+1 (415) 555-0100", s.FormData().Phone)
}

func TestSession_WebsiteWarning(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	require.NoError(t, s.Update(func(f *form.FormData) { f.Website = "not a site" }))
	assert.Contains(t, s.FieldWarnings(), "website")

	require.NoError(t, s.Update(func(f *form.FormData) { f.Website = "example.com" }))
	assert.NotContains(t, s.FieldWarnings(), "website")
}

func TestSession_ScheduleChangesTogether(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t), nil)
	start := time.Date(2025, 10, 16, 0, 15, 0, 0, dhaka(t))
	require.NoError(t, s.SelectSlot(scheduling.Slot{Start: start}))

	data := s.FormData()
	require.NotNil(t, data.SelectedDate)
	assert.Equal(t, "2025-10-16", data.SelectedDate.Format("2006-01-02"))
	assert.Equal(t, "00:15", data.SelectedTime)

	require.NoError(t, s.Update(func(f *form.FormData) { f.SelectedTime = "" }))
	data = s.FormData()
	assert.Nil(t, data.SelectedDate)
	assert.Empty(t, data.SelectedTime)

	require.NoError(t, s.SelectSlot(scheduling.Slot{Start: start}))
	require.NoError(t, s.ClearSchedule())
	assert.False(t, s.FormData().Scheduled())
}

func TestSession_SetTimeZone(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	require.NoError(t, s.LoadSlots(context.Background(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, s.SelectSlot(s.Slots().Data.SlotsOn("2025-10-15")[0]))

	require.NoError(t, s.SetTimeZone("America/New_York"))
	assert.Equal(t, "America/New_York", s.FormData().TimeZone)
	assert.False(t, s.FormData().Scheduled())
	assert.Nil(t, s.Slots().Data)

	assert.Error(t, s.SetTimeZone("Mars/Olympus"))
}

func TestSession_EditsRejectUnsupportedTimeZone(t *testing.T) {
	tests := []struct {
		name string
		edit func(s *Session) error
	}{
		{
			name: "update",
			edit: func(s *Session) error {
				return s.Update(func(f *form.FormData) {
					f.CompanyName = "Acme"
					f.TimeZone = "Mars/Olympus"
				})
			},
		},
		{
			name: "merge patch",
			edit: func(s *Session) error {
				return s.ApplyPatch([]byte(`{"companyName":"Acme","timeZone":"Mars/Olympus"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, newFakeBackend(t), nil)
			fillPersonalInfo(t, s)
			start := time.Date(2025, 10, 15, 20, 0, 0, 0, dhaka(t))
			require.NoError(t, s.SelectSlot(scheduling.Slot{Start: start}))
			before := s.FormData()

			err := tt.edit(s)
			require.ErrorIs(t, err, ErrUnsupportedTimeZone)

			after := s.FormData()
			assert.Equal(t, "Asia/Dhaka", after.TimeZone)
			assert.Empty(t, after.CompanyName)
			assert.True(t, after.Scheduled())
			assert.Equal(t, before.SelectedTime, after.SelectedTime)
		})
	}

	s := newTestSession(t, newFakeBackend(t), nil)
	require.NoError(t, s.ApplyPatch([]byte(`{"timeZone":"Europe/London"}`)))
	assert.Equal(t, "Europe/London", s.FormData().TimeZone)
}

// ==========================
// Slot Tests
// ==========================

func TestSession_LoadSlots(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)

	require.NoError(t, s.LoadSlots(context.Background(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))

	state := s.Slots()
	require.NoError(t, state.Err)
	assert.False(t, state.Fallback)
	assert.Equal(t, []string{"2025-10-15", "2025-10-16"}, state.Data.SortedDates())
	assert.Equal(t, "20:00", state.Data.SlotsOn("2025-10-15")[0].Clock(dhaka(t)))

	calls := b.calls("/api/getAvailableTimes")
	require.Len(t, calls, 1)
	var req gateway.AvailableTimesRequest
	require.NoError(t, json.Unmarshal(calls[0].Body, &req))
	assert.Equal(t, gateway.AvailableTimesRequest{
		EventTypeSlug: "30min",
		StartDate:     "2025-10-01",
		EndDate:       "2025-10-31",
		Timezone:      "Asia/Dhaka",
	}, req)

	// event type is fetched once per session
	require.NoError(t, s.LoadSlots(context.Background(), time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, b.calls("/api/getEventTypes"), 1)
}

func TestSession_LoadSlotsServerError(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/getAvailableTimes", jsonHandler(http.StatusInternalServerError, `{"error":"boom"}`))
	s := newTestSession(t, b, nil)

	err := s.LoadSlots(context.Background(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	state := s.Slots()
	assert.Nil(t, state.Data)
	assert.Error(t, state.Err)
	assert.False(t, state.Fallback)
	assert.Equal(t, "Failed to load available times. Please retry.", apperrors.UserMessage(state.Err))
	assert.Len(t, b.calls("/api/getAvailableTimes"), 2)

	// sample data only after an explicit request, and flagged
	require.NoError(t, s.UseSampleSlots())
	state = s.Slots()
	assert.True(t, state.Fallback)
	assert.NoError(t, state.Err)
	assert.Greater(t, state.Data.Count(), 0)
}

func TestSession_LoadSlotsClientErrorNotRetried(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/getAvailableTimes", jsonHandler(http.StatusBadRequest, `{"error":"bad month"}`))
	s := newTestSession(t, b, nil)

	require.Error(t, s.LoadSlots(context.Background(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, b.calls("/api/getAvailableTimes"), 1)
}

func TestSession_FallbackSlotRejected(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	fillAll(t, s)

	require.NoError(t, s.UseSampleSlots())
	state := s.Slots()
	date := state.Data.SortedDates()[0]
	require.NoError(t, s.SelectSlot(state.Data.SlotsOn(date)[0]))

	assert.ErrorIs(t, s.Submit(context.Background()), ErrFallbackSlot)
	assert.Empty(t, b.calls("/api/createCalcomBooking"))
	assert.Equal(t, StatusCollecting, s.Status())
}

// ==========================
// Submission Tests
// ==========================

func TestSession_Submit(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	fillAll(t, s)

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StatusConfirmed, s.Status())
	assert.Equal(t, SubmissionSucceeded, s.Submission().State)

	bookings := b.calls("/api/createCalcomBooking")
	require.Len(t, bookings, 1)
	assert.Equal(t, s.IdempotencyKey(), bookings[0].Headers.Get(gateway.IdempotencyHeader))

	var booking gateway.BookingRequest
	require.NoError(t, json.Unmarshal(bookings[0].Body, &booking))
	assert.Equal(t, gateway.BookingRequest{
		Name:        "Jane Doe",
		Email:       "jane@x.com",
		TimeZone:    "Asia/Dhaka",
		StartTime:   "2025-10-15T20:00:00.000+06:00",
		EventTypeID: 101,
	}, booking)

	emails := b.calls("/api/sendContactEmail")
	require.Len(t, emails, 1)
	var email gateway.ContactEmailRequest
	require.NoError(t, json.Unmarshal(emails[0].Body, &email))
	assert.Equal(t, "Jane Doe", email.Name)
	assert.Contains(t, email.Message, "Boost online sales/revenue, Improve brand awareness")
	assert.Contains(t, email.Message, "Meeting Scheduled: Yes")

	// confirmed sessions are immutable
	assert.ErrorIs(t, s.Update(func(f *form.FormData) { f.FullName = "x" }), ErrSessionConfirmed)
	assert.ErrorIs(t, s.Submit(context.Background()), ErrSessionConfirmed)
	assert.ErrorIs(t, s.Back(), ErrSessionConfirmed)
	assert.False(t, s.Abandon("closed"))
}

func TestSession_NextOnLastStepSubmits(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	fillAll(t, s)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Next(context.Background()))
	}
	require.Equal(t, form.StepSchedule, s.CurrentStep())

	require.NoError(t, s.Next(context.Background()))
	assert.Equal(t, StatusConfirmed, s.Status())
}

func TestSession_BookingFailureSkipsEmail(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/createCalcomBooking", jsonHandler(http.StatusConflict, `{"error":"slot taken"}`))
	s := newTestSession(t, b, nil)
	fillAll(t, s)

	err := s.Submit(context.Background())

	var remote *apperrors.RemoteServiceError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusConflict, remote.StatusCode)
	assert.Equal(t, apperrors.ErrCodeBookingFailed, apperrors.ToStandardError(err).Code)
	assert.Empty(t, b.calls("/api/sendContactEmail"))

	sub := s.Submission()
	assert.Equal(t, StatusFailed, s.Status())
	assert.Equal(t, SubmissionFailed, sub.State)
	assert.False(t, sub.Booked)
	assert.Equal(t, "We couldn't reach the booking service. Please try again.", sub.Reason)
	assert.Equal(t, "Jane Doe", s.FormData().FullName)
}

func TestSession_RetryAfterEmailFailureSkipsBooking(t *testing.T) {
	b := newFakeBackend(t)
	var mu sync.Mutex
	failures := 1
	b.handle("/api/sendContactEmail", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			jsonHandler(http.StatusBadGateway, `{"error":"smtp down"}`)(w, r)
			return
		}
		jsonHandler(http.StatusOK, `{"message":"sent"}`)(w, r)
	})
	ledger := NewMemoryLedger()
	s := newTestSession(t, b, ledger)
	fillAll(t, s)

	err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmailSendFailed, apperrors.ToStandardError(err).Code)
	assert.Equal(t, StatusFailed, s.Status())
	assert.True(t, s.Submission().Booked)

	rec, err := ledger.Lookup(context.Background(), s.IdempotencyKey())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2025-10-15T20:00:00.000+06:00", rec.StartTime)

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StatusConfirmed, s.Status())
	assert.Len(t, b.calls("/api/createCalcomBooking"), 1)
	assert.Len(t, b.calls("/api/sendContactEmail"), 2)
}

func TestSession_UnreadableBookingResponseNotRebooked(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/createCalcomBooking", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("Created"))
	})
	ledger := NewMemoryLedger()
	s := newTestSession(t, b, ledger)
	fillAll(t, s)

	err := s.Submit(context.Background())
	var malformed *apperrors.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, apperrors.ErrCodeBookingFailed, apperrors.ToStandardError(err).Code)
	assert.Equal(t, StatusFailed, s.Status())
	assert.True(t, s.Submission().Booked)
	assert.Empty(t, b.calls("/api/sendContactEmail"))

	rec, err := ledger.Lookup(context.Background(), s.IdempotencyKey())
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StatusConfirmed, s.Status())
	assert.Len(t, b.calls("/api/createCalcomBooking"), 1)
	assert.Len(t, b.calls("/api/sendContactEmail"), 1)
}

func TestSession_LedgerSkipsBookingMadeElsewhere(t *testing.T) {
	b := newFakeBackend(t)
	ledger := NewMemoryLedger()
	s := newTestSession(t, b, ledger)
	fillAll(t, s)
	require.NoError(t, ledger.Record(context.Background(), BookingRecord{IdempotencyKey: s.IdempotencyKey()}))

	require.NoError(t, s.Submit(context.Background()))
	assert.Empty(t, b.calls("/api/createCalcomBooking"))
	assert.Len(t, b.calls("/api/sendContactEmail"), 1)
}

func TestSession_ConcurrentSubmit(t *testing.T) {
	b := newFakeBackend(t)
	arrived := make(chan struct{})
	release := make(chan struct{})
	b.handle("/api/createCalcomBooking", func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		jsonHandler(http.StatusOK, `{"message":"booked"}`)(w, r)
	})
	s := newTestSession(t, b, nil)
	fillAll(t, s)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-arrived

	assert.Equal(t, StatusSubmitting, s.Status())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrSubmissionInFlight)
	assert.ErrorIs(t, s.Update(func(f *form.FormData) { f.FullName = "x" }), ErrSubmissionInFlight)
	assert.False(t, s.Abandon("closed"))

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, b.calls("/api/createCalcomBooking"), 1)
}

func TestSession_SubmitValidatesEveryStep(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	fillPersonalInfo(t, s)

	var invalid *apperrors.ValidationError
	require.ErrorAs(t, s.Submit(context.Background()), &invalid)
	assert.Equal(t, form.StepBusinessInfo.String(), invalid.Step)
	assert.Equal(t, StatusCollecting, s.Status())
	assert.Empty(t, b.calls("/api/createCalcomBooking"))
}

func TestSession_BackFromFailed(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/createCalcomBooking", jsonHandler(http.StatusInternalServerError, `{}`))
	s := newTestSession(t, b, nil)
	fillAll(t, s)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Next(context.Background()))
	}
	require.Error(t, s.Next(context.Background()))
	require.Equal(t, StatusFailed, s.Status())

	require.NoError(t, s.Back())
	assert.Equal(t, StatusCollecting, s.Status())
	assert.Equal(t, form.StepServiceNeeds, s.CurrentStep())
}

// ==========================
// Abandonment Tests
// ==========================

func TestSession_AbandonAtBusinessInfo(t *testing.T) {
	b := newFakeBackend(t)
	s := newTestSession(t, b, nil)
	fillPersonalInfo(t, s)
	require.NoError(t, s.Next(context.Background()))
	require.NoError(t, s.Update(func(f *form.FormData) {
		f.CompanyName = "Acme"
		f.Goals = []string{"online-sales"}
	}))

	assert.True(t, s.Abandon("hidden"))
	assert.False(t, s.Abandon("closed"))
	require.NoError(t, s.Drain(context.Background()))

	calls := b.calls("/api/sendPartialFormData")
	require.Len(t, calls, 1)

	var payload gateway.PartialFormRequest
	require.NoError(t, json.Unmarshal(calls[0].Body, &payload))
	assert.Equal(t, "jane@x.com", payload.Email)
	assert.Equal(t, "Jane Doe", payload.Name)
	assert.Equal(t, "2", payload.CurrentStep)
	assert.Equal(t, "N/A", payload.Service)
	assert.True(t, strings.HasPrefix(payload.Message, "User completed Business Info step but didn't continue."))
	assert.Contains(t, payload.Message, "Full Name: Jane Doe")
	assert.Contains(t, payload.Message, "Company Name: Acme")
	assert.NotContains(t, payload.Message, "What's your primary goal?")
	assert.NotContains(t, payload.Message, "Boost online sales")
}

func TestSession_AbandonSkipped(t *testing.T) {
	tests := []struct {
		name string
		edit func(*form.FormData)
	}{
		{name: "no fields", edit: func(f *form.FormData) {}},
		{name: "name only", edit: func(f *form.FormData) { f.FullName = "Jane" }},
		{name: "email only", edit: func(f *form.FormData) { f.Email = "jane@x.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend(t)
			s := newTestSession(t, b, nil)
			require.NoError(t, s.Update(tt.edit))

			assert.False(t, s.Abandon("closed"))
			require.NoError(t, s.Drain(context.Background()))
			assert.Empty(t, b.calls("/api/sendPartialFormData"))
		})
	}
}

func TestSession_AbandonFailureIsQuiet(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("/api/sendPartialFormData", jsonHandler(http.StatusInternalServerError, `{}`))
	s := newTestSession(t, b, nil)
	fillPersonalInfo(t, s)

	assert.True(t, s.Abandon("closed"))
	require.NoError(t, s.Drain(context.Background()))
	assert.Len(t, b.calls("/api/sendPartialFormData"), 1)
	assert.Equal(t, StatusCollecting, s.Status())
	assert.Equal(t, SubmissionIdle, s.Submission().State)
}

func TestSession_DrainHonoursContext(t *testing.T) {
	b := newFakeBackend(t)
	release := make(chan struct{})
	b.handle("/api/sendPartialFormData", func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonHandler(http.StatusOK, `{}`)(w, r)
	})
	s := newTestSession(t, b, nil)
	fillPersonalInfo(t, s)
	require.True(t, s.Abandon("closed"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.True(t, errors.Is(s.Drain(ctx), context.DeadlineExceeded))
	close(release)
}

func TestSession_ActiveGaugeReleasedOnEveryExit(t *testing.T) {
	b := newFakeBackend(t)
	tests := []struct {
		name string
		exit func(t *testing.T, s *Session)
	}{
		{name: "abandoned without contact", exit: func(t *testing.T, s *Session) {
			assert.False(t, s.Abandon("closed"))
		}},
		{name: "abandoned with contact", exit: func(t *testing.T, s *Session) {
			fillPersonalInfo(t, s)
			assert.True(t, s.Abandon("closed"))
			assert.False(t, s.Abandon("closed"))
		}},
		{name: "confirmed then abandoned", exit: func(t *testing.T, s *Session) {
			fillAll(t, s)
			require.NoError(t, s.Submit(context.Background()))
			assert.False(t, s.Abandon("closed"))
		}},
		{name: "closed twice", exit: func(t *testing.T, s *Session) {
			s.Close()
			s.Close()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.SessionsActive)
			s := newTestSession(t, b, nil)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.SessionsActive))

			tt.exit(t, s)
			require.NoError(t, s.Drain(context.Background()))
			assert.Equal(t, before, testutil.ToFloat64(metrics.SessionsActive))
		})
	}
}
