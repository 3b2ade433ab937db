// Package duplicate detects leads that likely refer to the same prospect.
// Matching compares normalized identity signals so that formatting noise
// (letter case, phone punctuation, national vs international prefixes) does
// not hide duplicates.
package duplicate

import (
	"strings"

	"agencydesk_backend/platform/phone"
)

// MaxMatches caps the number of candidates returned by a duplicate lookup.
const MaxMatches = 10

// Fields describes which identity signals participate in matching. All
// fields enabled is the usual configuration; individual signals can be
// switched off in the automation settings.
type Fields struct {
	Email   bool
	Company bool
	Phone   bool
}

// AllFields matches on every identity signal.
func AllFields() Fields {
	return Fields{Email: true, Company: true, Phone: true}
}

// Criteria holds the normalized keys a lookup matches against. An empty key
// means the signal does not participate, either because the field is blank
// or because it is disabled.
type Criteria struct {
	EmailKey   string
	CompanyKey string
	PhoneKey   string
}

// Empty reports whether no signal is usable. Callers should skip the lookup
// entirely in that case.
func (c Criteria) Empty() bool {
	return c.EmailKey == "" && c.CompanyKey == "" && c.PhoneKey == ""
}

// BuildCriteria normalizes the raw lead fields into lookup keys.
//
// Email and company match case-insensitively on the trimmed value. Phone
// matching uses the shared phone match key, which maps national and E.164
// spellings of the same number to one key and rejects fragments too short
// to identify a line.
func BuildCriteria(email, company, phoneNumber string, fields Fields) Criteria {
	var c Criteria

	if fields.Email {
		c.EmailKey = strings.ToLower(strings.TrimSpace(email))
	}
	if fields.Company {
		c.CompanyKey = strings.ToLower(strings.TrimSpace(company))
	}
	if fields.Phone {
		c.PhoneKey = phone.MatchKey(phoneNumber)
	}

	return c
}
