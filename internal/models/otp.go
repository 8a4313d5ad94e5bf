package models

import "time"

// Delivery methods
const (
	DeliverySMS      = "sms"
	DeliveryEmail    = "email"
	DeliveryWhatsApp = "whatsapp"
)

// ValidDeliveryMethod reports whether method is supported.
func ValidDeliveryMethod(method string) bool {
	switch method {
	case DeliverySMS, DeliveryEmail, DeliveryWhatsApp:
		return true
	}
	return false
}

// OtpCode is one issued code. At most one unused row is current per phone.
type OtpCode struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber    string    `gorm:"size:16;index;not null" json:"phone_number"`
	Code           string    `gorm:"size:10;not null" json:"-"`
	DeliveryMethod string    `gorm:"size:16;not null;default:'sms'" json:"delivery_method"`
	ExpiresAt      time.Time `gorm:"index;not null" json:"expires_at"`
	IsUsed         bool      `gorm:"not null;default:false;index" json:"is_used"`
	Attempts       int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the code is past its expiry at now.
func (o *OtpCode) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// OtpLockout tracks failed verifications per phone.
type OtpLockout struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	PhoneNumber  string     `gorm:"size:16;uniqueIndex;not null" json:"phone_number"`
	LockedUntil  *time.Time `gorm:"index" json:"locked_until"`
	AttemptCount int        `gorm:"not null;default:0" json:"attempt_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Locked reports whether the lockout is active at now.
func (l *OtpLockout) Locked(now time.Time) bool {
	return l.LockedUntil != nil && l.LockedUntil.After(now)
}

// Stale reports whether the lockout was engaged and has since lapsed.
func (l *OtpLockout) Stale(now time.Time) bool {
	return l.LockedUntil != nil && !l.LockedUntil.After(now)
}
