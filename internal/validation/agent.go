package validation

import (
	"fmt"
	"strings"

	"agentauth/internal/models"
)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone strips separators from a phone number.
func NormalizePhone(phone string) string {
	return phoneStripper.Replace(strings.TrimSpace(phone))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Phone validates an already normalized phone number.
func (v *Validator) Phone(field, phone string) {
	if !digitsOnly.MatchString(phone) {
		v.AddError(field, "must contain digits only")
		return
	}
	v.Check(len(phone) >= MinPhoneDigits && len(phone) <= MaxPhoneDigits, field,
		fmt.Sprintf("must be between %d and %d digits", MinPhoneDigits, MaxPhoneDigits))
}

// AgentRegistration normalizes input in place and validates it.
func (v *Validator) AgentRegistration(input *models.RegisterAgentInput, allowedCountries []string) {
	input.PhoneNumber = NormalizePhone(input.PhoneNumber)
	input.CountryCode = strings.TrimSpace(input.CountryCode)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = NormalizeEmail(input.Email)

	if v.Required("country_code", input.CountryCode) {
		v.OneOf("country_code", input.CountryCode, allowedCountries)
	}
	if v.Required("phone_number", input.PhoneNumber) {
		v.Phone("phone_number", input.PhoneNumber)
	}
	if v.Required("first_name", input.FirstName) {
		v.MaxLength("first_name", input.FirstName, MaxNameLength)
	}
	if v.Required("last_name", input.LastName) {
		v.MaxLength("last_name", input.LastName, MaxNameLength)
	}
	if v.Required("email", input.Email) {
		v.MaxLength("email", input.Email, MaxEmailLength)
		v.Email("email", input.Email)
	}
}

// ProfileUpdate normalizes the provided fields in place and validates them.
func (v *Validator) ProfileUpdate(update *models.ProfileUpdate) {
	if update.Empty() {
		v.AddError("profile", "no fields to update")
		return
	}
	if update.FirstName != nil {
		name := strings.TrimSpace(*update.FirstName)
		update.FirstName = &name
		if v.Required("first_name", name) {
			v.MaxLength("first_name", name, MaxNameLength)
		}
	}
	if update.LastName != nil {
		name := strings.TrimSpace(*update.LastName)
		update.LastName = &name
		if v.Required("last_name", name) {
			v.MaxLength("last_name", name, MaxNameLength)
		}
	}
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		update.Email = &email
		if v.Required("email", email) {
			v.MaxLength("email", email, MaxEmailLength)
			v.Email("email", email)
		}
	}
}
