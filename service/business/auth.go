package business

import (
	"context"
	"errors"
	"time"

	"github.com/forecasthub/service-credentials/service/events"
	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/service/repository"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
)

// Login flow error definitions. ErrInvalidCredentials carries the one
// message returned for every credential failure, whether or not the account
// exists, so the endpoint cannot be used to enumerate users.
var (
	ErrInvalidCredentials = errors.New("the supplied credentials could not be verified")
	ErrTooManyAttempts    = errors.New("too many failed attempts, try again later")
)

// Emitter publishes domain events. Satisfied by *frame.Service.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any) error
}

// SessionTTLConfig carries the configured session lifetimes per channel.
// A zero field falls back to the channel default.
type SessionTTLConfig struct {
	Web        time.Duration
	RememberMe time.Duration
	Api        time.Duration
}

func (c SessionTTLConfig) withDefaults() SessionTTLConfig {
	if c.Web <= 0 {
		c.Web = DefaultWebSessionTTL
	}
	if c.RememberMe <= 0 {
		c.RememberMe = RememberMeWebSessionTTL
	}
	if c.Api <= 0 {
		c.Api = DefaultApiSessionTTL
	}
	return c
}

func (c SessionTTLConfig) forChannel(channel models.SessionType, rememberMe bool) time.Duration {
	if channel == models.SessionTypeApi {
		return c.Api
	}
	if rememberMe {
		return c.RememberMe
	}
	return c.Web
}

// LoginRequest carries one login attempt through the orchestrator.
type LoginRequest struct {
	Contact    string
	Password   string
	IP         string
	UserAgent  string
	Channel    models.SessionType
	RememberMe bool
}

// RegisterRequest carries a registration attempt.
type RegisterRequest struct {
	Contact   string
	Password  string
	ProfileID string
	IP        string
	UserAgent string
	Channel   models.SessionType
}

// AuthResult is returned on a successful login or registration. BearerToken
// is only set for the api channel.
type AuthResult struct {
	ProfileID   string
	Session     *models.Session
	BearerToken string
}

// AuthOrchestrator sequences rate limit checks, credential validation and
// session issuance for the login, registration and logout flows. The sub
// steps commit independently; a crash between revocation and session create
// leaves the user with zero sessions, recovered by logging in again.
type AuthOrchestrator struct {
	identity       IdentityStore
	sessions       *SessionStore
	limiter        *RateLimiter
	tokens         *TokenCodec
	loginEventRepo repository.LoginEventRepository
	emitter        Emitter
	ttls           SessionTTLConfig
}

// NewAuthOrchestrator wires the orchestrator from its collaborators.
func NewAuthOrchestrator(identity IdentityStore, sessions *SessionStore, limiter *RateLimiter,
	tokens *TokenCodec, loginEventRepo repository.LoginEventRepository, emitter Emitter,
	ttls SessionTTLConfig) *AuthOrchestrator {
	return &AuthOrchestrator{
		identity:       identity,
		sessions:       sessions,
		limiter:        limiter,
		tokens:         tokens,
		loginEventRepo: loginEventRepo,
		emitter:        emitter,
		ttls:           ttls.withDefaults(),
	}
}

// Login runs the full login state machine for one attempt.
func (ao *AuthOrchestrator) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	log := util.Log(ctx).WithField("ip", req.IP)

	blocked, err := ao.limiter.IsIPBlocked(ctx, req.IP)
	if err != nil {
		return nil, err
	}
	if blocked {
		ao.recordLoginEvent(ctx, "", "", "", req, models.LoginEventStatusBlocked)
		return nil, ErrTooManyAttempts
	}

	login, err := ao.identity.ValidateCredentials(ctx, req.Contact, req.Password)
	if err != nil {
		return nil, err
	}
	if login == nil {
		err = ao.limiter.RecordFailedLoginAttempt(ctx, req.IP, req.Contact)
		if err != nil {
			log.WithError(err).Error("could not record failed login attempt")
		}
		ao.recordLoginEvent(ctx, "", "", "", req, models.LoginEventStatusFailed)
		return nil, ErrInvalidCredentials
	}

	err = ao.limiter.ResetFailedAttempts(ctx, req.IP)
	if err != nil {
		log.WithError(err).Error("could not reset failed attempt counter")
	}

	// Prior sessions go first. Creating the new session before revocation
	// would let the sweep undo the login it is meant to protect.
	_, err = ao.sessions.RevokeAllForUser(ctx, login.ProfileID)
	if err != nil {
		return nil, err
	}

	ttl := ao.ttls.forChannel(req.Channel, req.RememberMe)

	session, err := ao.sessions.CreateSession(ctx, login.ProfileID, "", req.Channel, req.IP, req.UserAgent, ttl)
	if err != nil {
		return nil, err
	}

	err = ao.identity.RecordLogin(ctx, login, time.Now())
	if err != nil {
		log.WithError(err).Error("could not record last login")
	}

	ao.recordLoginEvent(ctx, login.GetID(), login.ProfileID, session.GetID(), req, models.LoginEventStatusSucceeded)
	ao.publishSessionCreated(ctx, session)

	result := &AuthResult{
		ProfileID: login.ProfileID,
		Session:   session,
	}
	if req.Channel == models.SessionTypeApi {
		result.BearerToken, err = ao.tokens.Issue(session)
		if err != nil {
			return nil, err
		}
	}

	log.WithField("profile_id", login.ProfileID).Info("login succeeded")
	return result, nil
}

// Register creates the account then issues its first session. No prior
// session revocation runs, the account is new.
func (ao *AuthOrchestrator) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	login, err := ao.identity.CreateUser(ctx, req.Contact, req.Password, req.ProfileID)
	if err != nil {
		return nil, err
	}

	session, err := ao.sessions.CreateSession(ctx, login.ProfileID, "", req.Channel, req.IP, req.UserAgent,
		ao.ttls.forChannel(req.Channel, false))
	if err != nil {
		return nil, err
	}

	ao.publishSessionCreated(ctx, session)

	result := &AuthResult{
		ProfileID: login.ProfileID,
		Session:   session,
	}
	if req.Channel == models.SessionTypeApi {
		result.BearerToken, err = ao.tokens.Issue(session)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Logout revokes the profile's sessions on the matching channel only,
// leaving other channel sessions untouched.
func (ao *AuthOrchestrator) Logout(ctx context.Context, profileID string, channel models.SessionType) (int, error) {
	return ao.sessions.RevokeChannelForUser(ctx, profileID, channel)
}

func (ao *AuthOrchestrator) recordLoginEvent(ctx context.Context, loginID, profileID, sessionID string, req LoginRequest, status int) {
	event := &models.LoginEvent{
		LoginID:   loginID,
		ProfileID: profileID,
		SessionID: sessionID,
		IP:        req.IP,
		Client:    req.UserAgent,
		Status:    status,
		Properties: frame.JSONMap{
			"channel":        string(req.Channel),
			"contact_prefix": maskContact(req.Contact),
		},
	}

	err := ao.loginEventRepo.Save(ctx, event)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not save login event")
	}
}

func (ao *AuthOrchestrator) publishSessionCreated(ctx context.Context, session *models.Session) {
	if ao.emitter == nil {
		return
	}

	err := ao.emitter.Emit(ctx, events.EventKeySessionCreated, &events.SessionCreatedPayload{
		ProfileID: session.ProfileID,
		SessionID: session.GetID(),
		Kind:      session.Kind,
		IP:        session.IP,
		IssuedAt:  session.IssuedAt,
	})
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not publish session created event")
	}
}
