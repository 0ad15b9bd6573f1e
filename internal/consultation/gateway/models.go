package gateway

import (
	"encoding/json"

	"consultation-booking/internal/consultation/scheduling"
)

// Operation names, used for errors, logs and metrics labels.
const (
	OpSendContactEmail    = "sendContactEmail"
	OpSendPartialFormData = "sendPartialFormData"
	OpGetEventTypes       = "getEventTypes"
	OpGetAvailableTimes   = "getAvailableTimes"
	OpCreateBooking       = "createCalcomBooking"
)

// IdempotencyHeader carries the client token that lets the backend drop a
// repeated booking request.
const IdempotencyHeader = "Idempotency-Key"

type ContactEmailRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type PartialFormRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Service     string `json:"service"`
	Budget      string `json:"budget"`
	CurrentStep string `json:"currentStep"`
	Message     string `json:"message"`
}

type EventTypeOwner struct {
	TimeZone string `json:"timeZone"`
}

type EventType struct {
	ID     int64          `json:"id"`
	Slug   string         `json:"slug"`
	Length int            `json:"length"`
	Title  string         `json:"title"`
	Owner  EventTypeOwner `json:"owner"`
}

type EventTypeGroup struct {
	EventTypes []EventType `json:"eventTypes"`
}

type EventTypesResponse struct {
	Message    string `json:"message"`
	EventTypes struct {
		Status string `json:"status"`
		Data   struct {
			EventTypeGroups []EventTypeGroup `json:"eventTypeGroups"`
		} `json:"data"`
	} `json:"eventTypes"`
}

// All flattens every group into one list.
func (r *EventTypesResponse) All() []EventType {
	var out []EventType
	for _, g := range r.EventTypes.Data.EventTypeGroups {
		out = append(out, g.EventTypes...)
	}
	return out
}

// Find returns the event type with slug, or the first one when slug is empty.
func (r *EventTypesResponse) Find(slug string) (EventType, bool) {
	all := r.All()
	if len(all) == 0 {
		return EventType{}, false
	}
	if slug == "" {
		return all[0], true
	}
	for _, et := range all {
		if et.Slug == slug {
			return et, true
		}
	}
	return EventType{}, false
}

type AvailableTimesRequest struct {
	EventTypeSlug string `json:"eventTypeSlug"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Timezone      string `json:"timezone"`
}

type AvailableSlotsResponse struct {
	Message string `json:"message"`
	Slots   struct {
		Data   scheduling.Availability `json:"data"`
		Status string                  `json:"status"`
	} `json:"slots"`
}

type BookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	TimeZone    string `json:"timeZone"`
	StartTime   string `json:"startTime"`
	EventTypeID int64  `json:"eventTypeId"`
}

// BookingResponse keeps the confirmation body as returned by the backend.
type BookingResponse struct {
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}
