package signup

import "strings"

// DefaultCountryCode is prefixed to numbers entered without a leading "+".
const DefaultCountryCode = "+1"

// NormalizePhone trims raw and prefixes countryCode unless the number
// already starts with "+". No other validation happens here; the identity
// provider rejects malformed numbers.
func NormalizePhone(raw, countryCode string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return countryCode + phone
}

// maskPhone keeps the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
