package models

import (
	"errors"
	"time"

	"github.com/pitabwire/frame"
)

// SessionType identifies the channel a session was issued over.
type SessionType string

const (
	SessionTypeWeb SessionType = "web"
	SessionTypeApi SessionType = "api"
)

// State transition error definitions
var (
	ErrAPIKeyAlreadyRevoked  = errors.New("api key is already revoked")
	ErrAPIKeyAlreadyActive   = errors.New("api key is already active")
	ErrSessionAlreadyRevoked = errors.New("session is already revoked")
	ErrInvalidDuration       = errors.New("duration must be greater than zero")
)

// Login is the local credential record for an interactive account.
// The contact is stored hashed so the table never carries raw addresses.
type Login struct {
	frame.BaseModel
	ProfileID    string `gorm:"type:varchar(50);index"`
	ContactHash  string `gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash []byte
	Locked       time.Time
	LastLoginAt  *time.Time
}

// LoginEvent is the audit row written for every login attempt, pass or fail.
type LoginEvent struct {
	frame.BaseModel
	LoginID    string `gorm:"type:varchar(50)"`
	ProfileID  string `gorm:"type:varchar(50)"`
	SessionID  string `gorm:"type:varchar(50)"`
	IP         string `gorm:"type:varchar(64)"`
	Client     string
	Status     int
	Properties frame.JSONMap
}

// Login event status values
const (
	LoginEventStatusFailed    = 0
	LoginEventStatusSucceeded = 1
	LoginEventStatusBlocked   = 2
)

// APIKey is a long lived credential pair identifying a non interactive client.
// Only the argon2id digest of the secret is ever stored.
type APIKey struct {
	frame.BaseModel
	Name          string `gorm:"type:varchar(255)"`
	ProfileID     string `gorm:"type:varchar(50);index"`
	Key           string `gorm:"type:varchar(255);uniqueIndex"`
	Hash          string `gorm:"type:varchar(255)"`
	Scope         string `gorm:"type:text"`
	AllowedIP     string `gorm:"type:varchar(64)"`
	ExpiresAt     *time.Time
	LastUsedAt    *time.Time
	RequestCount  int64
	IsActive      bool `gorm:"default:true"`
	RevokedAt     *time.Time
	RevokedReason string `gorm:"type:text"`
}

// IsExpired reports whether the key had an expiry in the past at the given time.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Revoke marks the key inactive. Revoking an already revoked key is a state
// error, a key only returns to service through an explicit Reactivate.
func (k *APIKey) Revoke(at time.Time, reason string) error {
	if !k.IsActive || k.RevokedAt != nil {
		return ErrAPIKeyAlreadyRevoked
	}

	k.IsActive = false
	k.RevokedAt = &at
	k.RevokedReason = reason
	return nil
}

// Reactivate returns a revoked key to service.
func (k *APIKey) Reactivate() error {
	if k.IsActive {
		return ErrAPIKeyAlreadyActive
	}

	k.IsActive = true
	k.RevokedAt = nil
	k.RevokedReason = ""
	return nil
}

// RecordUsage notes a successful verification against this key.
func (k *APIKey) RecordUsage(at time.Time) {
	k.RequestCount++
	k.LastUsedAt = &at
}

// Session is a revocable, expiring authorization record tied to one login.
type Session struct {
	frame.BaseModel
	Token         string      `gorm:"type:varchar(255);uniqueIndex"`
	ProfileID     string      `gorm:"type:varchar(50);index"`
	Kind          SessionType `gorm:"type:varchar(10)"`
	IP            string      `gorm:"type:varchar(64)"`
	UserAgent     string      `gorm:"type:varchar(512)"`
	IssuedAt      time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
	RevokedReason string `gorm:"type:text"`
}

// IsRevoked reports whether the session has been revoked. Revocation is terminal.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid reports whether the session is usable at the given time.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsRevoked() && now.Before(s.ExpiresAt)
}

// Revoke terminally invalidates the session. A second revoke is a state error
// so double revocation logic bugs surface early rather than passing silently.
func (s *Session) Revoke(at time.Time, reason string) error {
	if s.IsRevoked() {
		return ErrSessionAlreadyRevoked
	}

	s.RevokedAt = &at
	s.RevokedReason = reason
	return nil
}

// Extend pushes the expiry out by the supplied duration.
func (s *Session) Extend(duration time.Duration) error {
	if s.IsRevoked() {
		return ErrSessionAlreadyRevoked
	}
	if duration <= 0 {
		return ErrInvalidDuration
	}

	s.ExpiresAt = s.ExpiresAt.Add(duration)
	return nil
}

// Remaining returns the lifetime left on the session. The second return is
// false when the session is revoked or already expired.
func (s *Session) Remaining(now time.Time) (time.Duration, bool) {
	if !s.IsValid(now) {
		return 0, false
	}
	return s.ExpiresAt.Sub(now), true
}

func (s *Session) IsWebSession() bool {
	return s.Kind == SessionTypeWeb
}

func (s *Session) IsApiSession() bool {
	return s.Kind == SessionTypeApi
}

// UserSession links a profile to a session it participates in. A join row per
// participant keeps room for shared sessions without reshaping the session table.
type UserSession struct {
	frame.BaseModel
	ProfileID string `gorm:"type:varchar(50);index"`
	SessionID string `gorm:"type:varchar(50);index"`
}
