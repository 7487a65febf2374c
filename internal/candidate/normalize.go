// Package candidate normalizes candidate records before they are stored.
package candidate

import (
	"strings"

	"interview-assistant/internal/types"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for phone numbers written without a country code.
const DefaultRegion = "US"

// Normalize trims text fields, lower-cases the email, drops blank skills,
// defaults the status and derives the E.164 phone.
func Normalize(c *types.Candidate) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Position = strings.TrimSpace(c.Position)
	c.Experience = strings.TrimSpace(c.Experience)
	c.Notes = strings.TrimSpace(c.Notes)

	skills := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	c.Skills = skills

	if c.Status == "" {
		c.Status = types.CandidateApplied
	}
	c.PhoneE164 = E164(c.Phone)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// E164 formats phone in E.164, or returns "" when it is not a valid number.
func E164(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	num, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ValidStatus reports whether s is a known candidate status.
func ValidStatus(s types.CandidateStatus) bool {
	for _, known := range types.CandidateStatuses {
		if s == known {
			return true
		}
	}
	return false
}
