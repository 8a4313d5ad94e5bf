package agent

import "time"

const DefaultLicenseAttempts = 5

// Config holds registry settings
type Config struct {
	AllowedCountryCodes []string
	// LicenseAttempts bounds the license number collision retries.
	LicenseAttempts     int
	Now                 func() time.Time
}
