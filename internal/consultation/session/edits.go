package session

import (
	"encoding/json"
	"fmt"
	"time"

	"consultation-booking/internal/common/validation"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/scheduling"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Update applies fn to the form data. A changed phone is normalized after fn
// returns.
func (s *Session) Update(fn func(*form.FormData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	prior := s.data.Phone
	next := s.data.Clone()
	fn(&next)
	return s.commit(next, prior)
}

// ApplyPatch merges an RFC 7396 JSON merge patch into the form data.
func (s *Session) ApplyPatch(patch []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	current, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return fmt.Errorf("apply form patch: %w", err)
	}

	var next form.FormData
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("apply form patch: %w", err)
	}
	return s.commit(next, s.data.Phone)
}

// SetPhone stores the normalized phone and returns the warning to show, if any.
func (s *Session) SetPhone(raw string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return "", err
	}

	next := s.data.Clone()
	next.Phone = raw
	if err := s.commit(next, s.data.Phone); err != nil {
		return "", err
	}
	return s.warnings["phone"], nil
}

// SelectSlot sets date and time together from a slot of the loaded availability.
func (s *Session) SelectSlot(slot scheduling.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	loc := scheduling.Location(s.timezone())
	start := slot.Start.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	s.data.SelectedDate = &day
	s.data.SelectedTime = slot.Clock(loc)
	s.fallbackPick = s.slots.Fallback
	return nil
}

// ClearSchedule unsets date and time together.
func (s *Session) ClearSchedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.clearSchedule()
	return nil
}

// SetTimeZone switches the display zone. Slots were fetched for the old zone,
// so the cache and any chosen slot are dropped.
func (s *Session) SetTimeZone(tz string) error {
	if !scheduling.IsSupported(tz) {
		return fmt.Errorf("%w %q", ErrUnsupportedTimeZone, tz)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.data.TimeZone == tz {
		return nil
	}
	s.data.TimeZone = tz
	s.clearSchedule()
	s.slots = SlotState{}
	return nil
}

func (s *Session) clearSchedule() {
	s.data.SelectedDate = nil
	s.data.SelectedTime = ""
	s.fallbackPick = false
}

// commit stores next, routing a changed phone through the normalizer and
// refreshing field warnings. A change to a zone outside the offset table is
// rejected and nothing is stored. Callers hold mu.
func (s *Session) commit(next form.FormData, priorPhone string) error {
	if next.TimeZone == "" {
		next.TimeZone = s.cfg.DefaultTimezone
	}
	if next.TimeZone != s.data.TimeZone && !scheduling.IsSupported(next.TimeZone) {
		return fmt.Errorf("%w %q", ErrUnsupportedTimeZone, next.TimeZone)
	}

	if next.Phone != priorPhone {
		res := s.cfg.Phone.Normalize(next.Phone, priorPhone)
		next.Phone = res.Value
		if res.Error != "" {
			s.warnings["phone"] = res.Error
		} else {
			delete(s.warnings, "phone")
		}
	}

	if next.Website != "" && !validation.ValidateURL(next.Website) {
		s.warnings["website"] = "Website doesn't look like a valid address"
	} else {
		delete(s.warnings, "website")
	}

	if (next.SelectedDate == nil) != (next.SelectedTime == "") {
		// date and time only ever change together
		next.SelectedDate = nil
		next.SelectedTime = ""
	}
	if next.TimeZone != s.data.TimeZone {
		next.SelectedDate = nil
		next.SelectedTime = ""
		s.slots = SlotState{}
	}
	if !next.Scheduled() {
		s.fallbackPick = false
	}
	s.data = next
	return nil
}
