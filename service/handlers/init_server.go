package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/forecasthub/service-credentials/config"
	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/repository"
	"github.com/forecasthub/service-credentials/utils"
	"github.com/gorilla/securecookie"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
)

const (
	sessionCookieName = "CredSessionID"
	deviceCookieName  = "DevSessionID"
)

type AuthServer struct {
	sc      *securecookie.SecureCookie
	service *frame.Service
	config  *config.CredentialConfig

	vault    *business.CredentialVault
	sessions *business.SessionStore
	limiter  *business.RateLimiter
	tokens   *business.TokenCodec
	auth     *business.AuthOrchestrator
}

// NewAuthServer wires the credential service handlers and their business
// collaborators.
func NewAuthServer(ctx context.Context, service *frame.Service, cfg *config.CredentialConfig,
	limiter *business.RateLimiter, sc *securecookie.SecureCookie) *AuthServer {

	apiKeyRepo := repository.NewAPIKeyRepository(service)
	sessionRepo := repository.NewSessionRepository(service)
	loginRepo := repository.NewLoginRepository(service)
	loginEventRepo := repository.NewLoginEventRepository(service)

	vault := business.NewCredentialVault(apiKeyRepo)
	sessions := business.NewSessionStore(sessionRepo)
	tokens := business.NewTokenCodec([]byte(cfg.TokenSigningSecret), cfg.TokenIssuer)
	identity := business.NewIdentityStore(loginRepo)

	webTTL, rememberTTL, apiTTL := cfg.SessionTTLs()
	auth := business.NewAuthOrchestrator(identity, sessions, limiter, tokens, loginEventRepo, service,
		business.SessionTTLConfig{Web: webTTL, RememberMe: rememberTTL, Api: apiTTL})

	return &AuthServer{
		sc:       sc,
		service:  service,
		config:   cfg,
		vault:    vault,
		sessions: sessions,
		limiter:  limiter,
		tokens:   tokens,
		auth:     auth,
	}
}

// Service methods for accessing dependencies
func (h *AuthServer) Service() *frame.Service {
	return h.service
}

func (h *AuthServer) Config() *config.CredentialConfig {
	return h.config
}

func (h *AuthServer) Vault() *business.CredentialVault {
	return h.vault
}

func (h *AuthServer) Sessions() *business.SessionStore {
	return h.sessions
}

func (h *AuthServer) Limiter() *business.RateLimiter {
	return h.limiter
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *AuthServer) writeError(ctx context.Context, w http.ResponseWriter, err error, code int, msg string) {

	w.Header().Set("Content-Type", "application/json")

	log := h.service.Log(ctx).
		WithField("code", code).
		WithField("message", msg).WithError(err)
	log.Error("request processing error")
	w.WriteHeader(code)

	message := msg
	if h.config.ExposeErrors {
		message = fmt.Sprintf("%s: %s", msg, err)
	}

	encodeErr := json.NewEncoder(w).Encode(&ErrorResponse{
		Code:    code,
		Message: message,
	})
	if encodeErr != nil {
		log.WithError(encodeErr).Error("could not write error to response")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// deviceIDMiddleware to ensure every browser carries a signed device cookie
func (h *AuthServer) deviceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Try to get the existing cookie
		cookie, err := r.Cookie(deviceCookieName)
		if err == nil {
			// Decode and verify the cookie
			var decodedValue string
			if decodeErr := h.sc.Decode(deviceCookieName, cookie.Value, &decodedValue); decodeErr == nil {
				r = r.WithContext(utils.DeviceIDToContext(r.Context(), decodedValue))
				next.ServeHTTP(w, r)
				return
			}
		}

		newDeviceID := util.IDString()

		// Encode and sign the cookie
		encoded, encodeErr := h.sc.Encode(deviceCookieName, newDeviceID)
		if encodeErr != nil {
			http.Error(w, "Failed to encode cookie", http.StatusInternalServerError)
			return
		}

		// Set the secure, signed cookie
		http.SetCookie(w, &http.Cookie{
			Name:     deviceCookieName,
			Value:    encoded,
			Path:     "/",
			MaxAge:   473040000, // 15 years
			Secure:   true,      // HTTPS-only
			HttpOnly: true,      // No JavaScript access
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(473040000 * time.Second),
		})
		r = r.WithContext(utils.DeviceIDToContext(r.Context(), newDeviceID))
		// Continue to the next handler
		next.ServeHTTP(w, r)
	})
}

// authenticateBearer parses the Authorization header and checks the token
// against the session record it serializes. Nothing the token claims is
// trusted unless the stored session confirms it: the session must exist, be
// valid, and carry the same profile and id the claims do.
func (h *AuthServer) authenticateBearer(ctx context.Context, authHeader string) (*business.SessionClaims, error) {
	const bearerPrefix = "Bearer "
	if len(authHeader) <= len(bearerPrefix) || authHeader[:len(bearerPrefix)] != bearerPrefix {
		return nil, business.ErrInvalidBearerToken
	}

	claims, err := h.tokens.Parse(authHeader[len(bearerPrefix):])
	if err != nil {
		return nil, err
	}

	session, err := h.sessions.GetByToken(ctx, claims.SessionToken)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsValid(time.Now()) ||
		session.ProfileID != claims.Subject || session.GetID() != claims.SessionID {
		return nil, business.ErrInvalidBearerToken
	}

	return claims, nil
}

// bearerAuthMiddleware admits api channel requests whose bearer token maps
// back to a live session owned by the profile the token names.
func (h *AuthServer) bearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := h.authenticateBearer(ctx, r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, business.ErrInvalidBearerToken) {
				h.writeError(ctx, w, err, http.StatusUnauthorized, "invalid bearer token")
			} else {
				h.writeError(ctx, w, err, http.StatusInternalServerError, "could not validate session")
			}
			return
		}

		ctx = utils.ProfileIDToContext(ctx, claims.Subject)
		ctx = utils.SessionIDToContext(ctx, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
