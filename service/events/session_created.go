package events

import (
	"context"
	"errors"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/pitabwire/frame"
)

const EventKeySessionCreated = "session.created.event"

// SessionCreatedPayload is the notification emitted after every successful
// login or registration. Downstream real time notification layers consume it.
type SessionCreatedPayload struct {
	ProfileID string             `json:"profile_id"`
	SessionID string             `json:"session_id"`
	Kind      models.SessionType `json:"kind"`
	IP        string             `json:"ip"`
	IssuedAt  time.Time          `json:"issued_at"`
}

type SessionCreatedEvent struct {
	svc *frame.Service
}

// NewSessionCreatedEventHandler wires the session created event for
// registration with the service at boot.
func NewSessionCreatedEventHandler(svc *frame.Service) frame.EventI {
	return &SessionCreatedEvent{
		svc: svc,
	}
}

func (sce *SessionCreatedEvent) Name() string {
	return EventKeySessionCreated
}

func (sce *SessionCreatedEvent) PayloadType() any {
	return &SessionCreatedPayload{}
}

func (sce *SessionCreatedEvent) Validate(_ context.Context, payload any) error {
	p, ok := payload.(*SessionCreatedPayload)
	if !ok {
		return errors.New("invalid payload type, expected *SessionCreatedPayload")
	}
	if p.SessionID == "" {
		return errors.New("session created payload missing session id")
	}
	return nil
}

func (sce *SessionCreatedEvent) Execute(ctx context.Context, payload any) error {
	p, ok := payload.(*SessionCreatedPayload)
	if !ok {
		return errors.New("invalid payload type, expected *SessionCreatedPayload")
	}

	logger := sce.svc.Log(ctx).WithFields(map[string]any{
		"session_id": p.SessionID,
		"profile_id": p.ProfileID,
		"kind":       p.Kind,
		"type":       sce.Name(),
	})
	logger.Info("session created notification dispatched")

	return nil
}
