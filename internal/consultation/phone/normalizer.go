// Package phone canonicalizes phone numbers typed into the Personal Info step.
package phone

import (
	"fmt"
	"strings"
)

const (
	DefaultCountryCode = "880"
	DefaultMaxDigits   = 10
)

// Normalizer maps raw input onto "+<CountryCode><national>" for numbers in the
// default country. Numbers from any other country are kept verbatim.
type Normalizer struct {
	CountryCode string
	MaxDigits   int
}

// Result is the outcome of one Normalize call. Value is always safe to store;
// Error is a warning to show next to the field.
type Result struct {
	Value   string
	Error   string
	Changed bool
}

func NewNormalizer(countryCode string, maxDigits int) Normalizer {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if maxDigits <= 0 {
		maxDigits = DefaultMaxDigits
	}
	return Normalizer{CountryCode: countryCode, MaxDigits: maxDigits}
}

// LengthMessage is the warning for a national number of the wrong length.
func (n Normalizer) LengthMessage() string {
	return fmt.Sprintf("Phone number must be exactly %d digits", n.MaxDigits)
}

// Normalize is pure: the same raw and prior always give the same Result.
// prior is the currently stored value and only feeds Result.Changed.
func (n Normalizer) Normalize(raw, prior string) Result {
	res := n.normalize(raw)
	res.Changed = res.Value != prior
	return res
}

func (n Normalizer) normalize(raw string) Result {
	if raw == "" {
		return Result{}
	}

	digits := onlyDigits(raw)
	if !strings.HasPrefix(digits, n.CountryCode) {
		return Result{Value: raw}
	}

	national := strings.TrimPrefix(digits[len(n.CountryCode):], "0")
	if national == "" {
		// only the calling code so far
		return Result{Value: raw}
	}

	if len(national) > n.MaxDigits {
		return Result{
			Value: n.build(national[:n.MaxDigits]),
			Error: n.LengthMessage(),
		}
	}
	return Result{Value: n.build(national)}
}

// NationalDigits returns the national part of a stored value. For numbers
// outside the default country every digit counts.
func (n Normalizer) NationalDigits(value string) string {
	digits := onlyDigits(value)
	if strings.HasPrefix(digits, n.CountryCode) {
		return strings.TrimPrefix(digits[len(n.CountryCode):], "0")
	}
	return digits
}

// Validate is the forward-navigation check for a stored phone value.
func (n Normalizer) Validate(value string) error {
	national := n.NationalDigits(value)
	if national == "" {
		return fmt.Errorf("Phone number is required")
	}
	if len(national) != n.MaxDigits {
		return fmt.Errorf("%s", n.LengthMessage())
	}
	return nil
}

// Qualify turns terminal input without a leading "+" into an international
// string in the default country, the way a phone widget with a preselected
// country does. "01712345678" becomes "+88001712345678".
func (n Normalizer) Qualify(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	if strings.HasPrefix(onlyDigits(trimmed), n.CountryCode) {
		return "+" + trimmed
	}
	return "+" + n.CountryCode + trimmed
}

func (n Normalizer) build(national string) string {
	return "+" + n.CountryCode + national
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
