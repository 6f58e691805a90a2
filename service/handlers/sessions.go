package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/utils"
	"github.com/gorilla/mux"
)

type sessionView struct {
	ID        string             `json:"id"`
	Kind      models.SessionType `json:"kind"`
	IP        string             `json:"ip,omitempty"`
	UserAgent string             `json:"userAgent,omitempty"`
	IssuedAt  time.Time          `json:"issuedAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

func (h *AuthServer) ListSessionsEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	sessions, err := h.sessions.GetActiveSessions(ctx, profileID)
	if err != nil {
		return err
	}

	views := make([]sessionView, len(sessions))
	for i, session := range sessions {
		views[i] = sessionView{
			ID:        session.GetID(),
			Kind:      session.Kind,
			IP:        session.IP,
			UserAgent: session.UserAgent,
			IssuedAt:  session.IssuedAt,
			ExpiresAt: session.ExpiresAt,
		}
	}

	return writeJSON(rw, http.StatusOK, views)
}

func (h *AuthServer) RevokeSessionEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	sessionID := mux.Vars(req)["SessionId"]

	// Only the owner may revoke a session through this endpoint.
	session, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil || session.ProfileID != profileID {
		return business.ErrSessionNotFound
	}

	revoked, err := h.sessions.Revoke(ctx, sessionID, "revoked by owner")
	if err != nil {
		return err
	}
	if !revoked {
		return business.ErrSessionNotFound
	}

	rw.WriteHeader(http.StatusNoContent)
	return nil
}
