package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/utils"
	"github.com/pitabwire/util"
)

type loginRequest struct {
	Contact    string `json:"contact"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type registerRequest struct {
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

type authResponse struct {
	ProfileID   string    `json:"profileId"`
	SessionID   string    `json:"sessionId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	AccessToken string    `json:"accessToken,omitempty"`
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func authResponseFor(result *business.AuthResult) authResponse {
	return authResponse{
		ProfileID:   result.ProfileID,
		SessionID:   result.Session.GetID(),
		ExpiresAt:   result.Session.ExpiresAt,
		AccessToken: result.BearerToken,
	}
}

// SubmitLoginEndpoint handles browser channel logins. On success the session
// token rides a signed, encrypted cookie.
func (h *AuthServer) SubmitLoginEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body loginRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	result, err := h.auth.Login(ctx, business.LoginRequest{
		Contact:    body.Contact,
		Password:   body.Password,
		IP:         clientIP(req),
		UserAgent:  req.UserAgent(),
		Channel:    models.SessionTypeWeb,
		RememberMe: body.RememberMe,
	})
	if err != nil {
		return err
	}

	err = h.setSessionCookie(rw, result.Session)
	if err != nil {
		return err
	}

	return writeJSON(rw, http.StatusOK, authResponseFor(result))
}

// SubmitRegisterEndpoint handles browser channel registration. The fresh
// account gets its first session immediately.
func (h *AuthServer) SubmitRegisterEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body registerRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	result, err := h.auth.Register(ctx, business.RegisterRequest{
		Contact:   body.Contact,
		Password:  body.Password,
		IP:        clientIP(req),
		UserAgent: req.UserAgent(),
		Channel:   models.SessionTypeWeb,
	})
	if err != nil {
		return err
	}

	err = h.setSessionCookie(rw, result.Session)
	if err != nil {
		return err
	}

	return writeJSON(rw, http.StatusCreated, authResponseFor(result))
}

// LogoutEndpoint ends the browser session. Only web channel sessions are
// revoked; an api bearer session for the same profile keeps working.
func (h *AuthServer) LogoutEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	log := util.Log(ctx).WithField("endpoint", "LogoutEndpoint")

	session, err := h.sessionFromCookie(req)
	if err != nil || session == nil {
		log.WithError(err).Info("logout without a live session cookie")
		h.clearSessionCookie(rw)
		rw.WriteHeader(http.StatusNoContent)
		return nil
	}

	_, err = h.auth.Logout(ctx, session.ProfileID, models.SessionTypeWeb)
	if err != nil {
		return err
	}

	h.clearSessionCookie(rw)
	rw.WriteHeader(http.StatusNoContent)
	return nil
}

// LoginEndpoint handles api channel logins and answers with a bearer token.
func (h *AuthServer) LoginEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body loginRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	result, err := h.auth.Login(ctx, business.LoginRequest{
		Contact:   body.Contact,
		Password:  body.Password,
		IP:        clientIP(req),
		UserAgent: req.UserAgent(),
		Channel:   models.SessionTypeApi,
	})
	if err != nil {
		return err
	}

	return writeJSON(rw, http.StatusOK, authResponseFor(result))
}

// RegisterEndpoint handles api channel registration.
func (h *AuthServer) RegisterEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body registerRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	result, err := h.auth.Register(ctx, business.RegisterRequest{
		Contact:   body.Contact,
		Password:  body.Password,
		IP:        clientIP(req),
		UserAgent: req.UserAgent(),
		Channel:   models.SessionTypeApi,
	})
	if err != nil {
		return err
	}

	return writeJSON(rw, http.StatusCreated, authResponseFor(result))
}

// ApiLogoutEndpoint revokes the caller's api channel sessions, leaving any
// web sessions in place.
func (h *AuthServer) ApiLogoutEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	_, err := h.auth.Logout(ctx, profileID, models.SessionTypeApi)
	if err != nil {
		return err
	}

	rw.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *AuthServer) setSessionCookie(rw http.ResponseWriter, session *models.Session) error {
	encoded, err := h.sc.Encode(sessionCookieName, session.Token)
	if err != nil {
		return err
	}

	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (h *AuthServer) clearSessionCookie(rw http.ResponseWriter) {
	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthServer) sessionFromCookie(req *http.Request) (*models.Session, error) {
	cookie, err := req.Cookie(sessionCookieName)
	if err != nil {
		return nil, nil
	}

	var token string
	err = h.sc.Decode(sessionCookieName, cookie.Value, &token)
	if err != nil {
		return nil, nil
	}

	return h.sessions.GetByToken(req.Context(), token)
}
