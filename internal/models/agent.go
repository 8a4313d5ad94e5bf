package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent statuses
const (
	AgentStatusActive    = "active"
	AgentStatusInactive  = "inactive"
	AgentStatusSuspended = "suspended"
)

// ValidAgentStatus reports whether status is one of the known agent statuses.
func ValidAgentStatus(status string) bool {
	switch status {
	case AgentStatusActive, AgentStatusInactive, AgentStatusSuspended:
		return true
	}
	return false
}

type Agent struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	PhoneNumber   string    `gorm:"size:16;uniqueIndex;not null" json:"phone_number"`
	CountryCode   string    `gorm:"size:8;not null" json:"country_code"`
	FirstName     string    `gorm:"size:100;not null" json:"first_name"`
	LastName      string    `gorm:"size:100;not null" json:"last_name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	LicenseNumber string    `gorm:"size:6;uniqueIndex;not null" json:"license_number"`
	Status        string    `gorm:"size:16;not null;default:'active'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AgentStatusActive
	}
	return nil
}

// IsActive reports whether the agent may authenticate.
func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}

// RegisterAgentInput is the registration payload.
type RegisterAgentInput struct {
	PhoneNumber string `json:"phone_number"`
	CountryCode string `json:"country_code"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
}

// ProfileUpdate lists the mutable profile fields. Nil means unchanged.
// The phone number is immutable.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Empty reports whether no field was provided.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil
}
