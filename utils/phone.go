package utils

import "strings"

// CleanPhoneNumber strips everything but digits and prefixes the default
// country code to bare 10-digit national numbers.
func CleanPhoneNumber(phone, defaultCountryCode string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 10 && defaultCountryCode != "" {
		cleaned = defaultCountryCode + cleaned
	}

	return cleaned
}

// IsValidPhone is a very simple E.164-ish check on a cleaned number.
func IsValidPhone(phone string) bool {
	if len(phone) < 8 || len(phone) > 15 {
		return false
	}
	for _, ch := range phone {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// E164 formats a phone number with a leading plus, as Twilio expects.
func E164(phone, defaultCountryCode string) string {
	return "+" + CleanPhoneNumber(phone, defaultCountryCode)
}
