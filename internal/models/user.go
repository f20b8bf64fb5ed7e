package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// NotificationPreferences controls which channels an account receives messages on.
type NotificationPreferences struct {
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
	Push       bool `json:"push"`
	Promotions bool `json:"promotions"`
}

// DefaultNotificationPreferences is applied to newly created accounts.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, SMS: true, Push: true}
}

// User represents a verified account.
type User struct {
	BaseModel
	Username      string                  `gorm:"uniqueIndex;size:64" json:"username"`
	Email         string                  `gorm:"uniqueIndex;size:255" json:"email"`
	Mobile        string                  `gorm:"uniqueIndex;size:32" json:"mobile"`
	PasswordHash  string                  `json:"-"`
	IsVerified    bool                    `json:"isVerified"`
	Role          Role                    `gorm:"size:32;index" json:"role"`
	FirstName     string                  `json:"firstName"`
	LastName      string                  `json:"lastName"`
	Avatar        string                  `json:"avatar"`
	Notifications NotificationPreferences `gorm:"embedded;embeddedPrefix:notify_" json:"notificationPreferences"`
	Addresses     []UserAddress           `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
}

// IsAdmin reports whether the account may use the admin console.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// PendingSignup keeps an unverified signup attempt until its code is confirmed.
type PendingSignup struct {
	BaseModel
	Username     string    `gorm:"size:64" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	Mobile       string    `gorm:"size:32" json:"mobile"`
	PasswordHash string    `json:"-"`
	OTP          string    `gorm:"column:otp;size:6" json:"-"`
	OTPExpiresAt time.Time `gorm:"column:otp_expires_at" json:"otpExpiresAt"`
}

// UserAddress is a saved delivery address.
type UserAddress struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Label      string    `json:"label"`
	Street     string    `json:"street"`
	Apartment  string    `json:"apartment"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Landmark   string    `json:"landmark"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	IsDefault  bool      `json:"isDefault"`
}

// Snapshot copies the address into the form stored on an order.
func (a UserAddress) Snapshot() DeliveryAddress {
	return DeliveryAddress{
		Label:      a.Label,
		Street:     a.Street,
		Apartment:  a.Apartment,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Landmark:   a.Landmark,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
	}
}
