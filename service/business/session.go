package business

import (
	"context"
	"errors"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/service/repository"
	"github.com/google/uuid"
	"github.com/pitabwire/util"
)

// Default session lifetimes per channel. Callers may override on create.
const (
	DefaultWebSessionTTL    = 7 * 24 * time.Hour
	RememberMeWebSessionTTL = 30 * 24 * time.Hour
	DefaultApiSessionTTL    = 24 * time.Hour

	revokedReasonSuperseded = "superseded by a new login"
	revokedReasonLoggedOut  = "logged out"
)

// Session lifecycle error definitions
var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore creates, validates and revokes session records across the
// web cookie and api bearer channels.
type SessionStore struct {
	sessionRepo repository.SessionRepository
}

// NewSessionStore creates a new session store over the supplied repository.
func NewSessionStore(sessionRepo repository.SessionRepository) *SessionStore {
	return &SessionStore{
		sessionRepo: sessionRepo,
	}
}

// CreateSession issues a fresh session for the profile. An empty token gets
// a generated opaque value; a non positive ttl falls back to the channel
// default (web 7d, api 24h).
func (ss *SessionStore) CreateSession(ctx context.Context, profileID, token string, kind models.SessionType, ip, userAgent string, ttl time.Duration) (*models.Session, error) {
	if ttl <= 0 {
		switch kind {
		case models.SessionTypeApi:
			ttl = DefaultApiSessionTTL
		default:
			ttl = DefaultWebSessionTTL
		}
	}

	if token == "" {
		token = uuid.NewString()
	}

	now := time.Now()
	session := &models.Session{
		Token:     token,
		ProfileID: profileID,
		Kind:      kind,
		IP:        ip,
		UserAgent: userAgent,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := ss.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, err
	}

	err = ss.sessionRepo.LinkProfile(ctx, &models.UserSession{
		ProfileID: profileID,
		SessionID: session.GetID(),
	})
	if err != nil {
		return nil, err
	}

	util.Log(ctx).WithFields(map[string]any{
		"session_id": session.GetID(),
		"profile_id": profileID,
		"kind":       kind,
		"expires_at": session.ExpiresAt,
	}).Info("session created")

	return session, nil
}

// IsValid reports whether a live, unrevoked session exists for the token.
func (ss *SessionStore) IsValid(ctx context.Context, token string) (bool, error) {
	session, err := ss.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	return session.IsValid(time.Now()), nil
}

// GetByToken returns the session for the token, nil when absent.
func (ss *SessionStore) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	return ss.sessionRepo.GetByToken(ctx, token)
}

// Get returns the session by id, nil when absent.
func (ss *SessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return ss.sessionRepo.GetByID(ctx, sessionID)
}

// Revoke terminates the session. An unknown id returns (false, nil) so the
// call is idempotent at the api boundary; revoking a session that is already
// revoked surfaces models.ErrSessionAlreadyRevoked to catch logic errors.
func (ss *SessionStore) Revoke(ctx context.Context, sessionID, reason string) (bool, error) {
	session, err := ss.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}

	err = session.Revoke(time.Now(), reason)
	if err != nil {
		return false, err
	}

	err = ss.sessionRepo.Save(ctx, session)
	if err != nil {
		return false, err
	}

	util.Log(ctx).WithField("session_id", sessionID).WithField("reason", reason).
		Info("session revoked")
	return true, nil
}

// RevokeAllForUser revokes every currently valid session the profile owns,
// enforcing the policy that a fresh login replaces all prior sessions.
func (ss *SessionStore) RevokeAllForUser(ctx context.Context, profileID string) (int, error) {
	return ss.revokeForUser(ctx, profileID, "", revokedReasonSuperseded)
}

// RevokeChannelForUser revokes the profile's valid sessions of one channel
// only, leaving the other channel untouched. Used by logout.
func (ss *SessionStore) RevokeChannelForUser(ctx context.Context, profileID string, kind models.SessionType) (int, error) {
	return ss.revokeForUser(ctx, profileID, kind, revokedReasonLoggedOut)
}

func (ss *SessionStore) revokeForUser(ctx context.Context, profileID string, kind models.SessionType, reason string) (int, error) {
	sessions, err := ss.sessionRepo.GetByProfileID(ctx, profileID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	revoked := 0
	for _, session := range sessions {
		if !session.IsValid(now) {
			continue
		}
		if kind != "" && session.Kind != kind {
			continue
		}

		err = session.Revoke(now, reason)
		if err != nil {
			return revoked, err
		}
		err = ss.sessionRepo.Save(ctx, session)
		if err != nil {
			return revoked, err
		}
		revoked++
	}

	if revoked > 0 {
		util.Log(ctx).WithFields(map[string]any{
			"profile_id": profileID,
			"revoked":    revoked,
			"reason":     reason,
		}).Info("prior sessions revoked")
	}
	return revoked, nil
}

// GetActiveSessions returns the profile's currently valid sessions.
func (ss *SessionStore) GetActiveSessions(ctx context.Context, profileID string) ([]*models.Session, error) {
	sessions, err := ss.sessionRepo.GetByProfileID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := make([]*models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.IsValid(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

// Extend pushes the session expiry out by the supplied duration.
func (ss *SessionStore) Extend(ctx context.Context, sessionID string, duration time.Duration) error {
	session, err := ss.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	err = session.Extend(duration)
	if err != nil {
		return err
	}

	return ss.sessionRepo.Save(ctx, session)
}

// GetRemainingLifetime returns the lifetime left on the session. The second
// return is false when the session is unknown, revoked or already expired.
func (ss *SessionStore) GetRemainingLifetime(ctx context.Context, sessionID string) (time.Duration, bool, error) {
	session, err := ss.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return 0, false, err
	}
	if session == nil {
		return 0, false, nil
	}

	remaining, ok := session.Remaining(time.Now())
	return remaining, ok, nil
}

// PurgeExpired clears out sessions whose expiry has passed.
func (ss *SessionStore) PurgeExpired(ctx context.Context) error {
	return ss.sessionRepo.DeleteExpired(ctx)
}
