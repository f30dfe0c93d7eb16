package waitlist

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalize lower-cases the email and formats the phone number as E.164,
// reading numbers without a country prefix in defaultRegion.
func (c Contact) Normalize(defaultRegion string) (Contact, error) {
	out := Contact{
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
	if out.Email == "" && out.Phone == "" {
		return Contact{}, ErrMissingContact
	}

	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil || addr.Address != out.Email {
			return Contact{}, ErrInvalidEmail
		}
	}

	if out.Phone != "" {
		num, err := phonenumbers.Parse(out.Phone, strings.ToUpper(defaultRegion))
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return Contact{}, ErrInvalidPhone
		}
		out.Phone = phonenumbers.Format(num, phonenumbers.E164)
	}

	return out, nil
}
