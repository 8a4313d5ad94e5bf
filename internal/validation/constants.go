package validation

const (
	// Phone numbers are stored as national digits only.
	MinPhoneDigits = 9
	MaxPhoneDigits = 12

	// String lengths
	MaxNameLength  = 100
	MaxEmailLength = 255
)
