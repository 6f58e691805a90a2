package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/utils"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

type apiKeyView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Scope        string     `json:"scope,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty"`
	RequestCount int64      `json:"requestCount"`

	// Populated only on creation; the secret is never retrievable again.
	Key       string `json:"apiKey,omitempty"`
	KeySecret string `json:"apiKeySecret,omitempty"`
}

type createAPIKeyRequest struct {
	Name           string `json:"name"`
	Scope          string `json:"scope"`
	AllowedIP      string `json:"allowedIp"`
	ExpirationDays *int   `json:"expirationDays"`
}

type verifyAPIKeyRequest struct {
	Key    string `json:"apiKey"`
	Secret string `json:"apiKeySecret"`
}

type verifyAPIKeyResponse struct {
	Valid     bool   `json:"valid"`
	ProfileID string `json:"profileId,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

type revokeAPIKeyRequest struct {
	Reason string `json:"reason"`
}

func apiKeyViewFor(apiKey *models.APIKey) apiKeyView {
	return apiKeyView{
		ID:           apiKey.GetID(),
		Name:         apiKey.Name,
		Scope:        apiKey.Scope,
		IsActive:     apiKey.IsActive,
		CreatedAt:    apiKey.CreatedAt,
		ExpiresAt:    apiKey.ExpiresAt,
		LastUsedAt:   apiKey.LastUsedAt,
		RequestCount: apiKey.RequestCount,
	}
}

func (h *AuthServer) CreateAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	decoder := json.NewDecoder(req.Body)
	var body createAPIKeyRequest
	err := decoder.Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	apiKey, secret, err := h.vault.Generate(ctx, profileID, body.Name, business.GenerateOptions{
		ExpirationDays: body.ExpirationDays,
		Scope:          body.Scope,
		AllowedIP:      body.AllowedIP,
	})
	if err != nil {
		return err
	}

	view := apiKeyViewFor(apiKey)
	view.Key = apiKey.Key
	view.KeySecret = secret

	return writeJSON(rw, http.StatusCreated, view)
}

func (h *AuthServer) ListAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	apiKeyList, err := h.vault.List(ctx, profileID)
	if err != nil {
		return err
	}

	apiObjects := make([]apiKeyView, len(apiKeyList))
	for i, apiKey := range apiKeyList {
		apiObjects[i] = apiKeyViewFor(apiKey)
	}

	return writeJSON(rw, http.StatusOK, apiObjects)
}

func (h *AuthServer) GetAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	apiKeyID := mux.Vars(req)["ApiKeyId"]

	apiKey, err := h.vault.Get(ctx, apiKeyID, profileID)
	if err != nil {
		return err
	}
	if apiKey == nil {
		rw.WriteHeader(http.StatusNotFound)
		return nil
	}

	return writeJSON(rw, http.StatusOK, apiKeyViewFor(apiKey))
}

// VerifyAPIKeyEndpoint checks a presented key and secret pair. The response
// shape is identical for every failure mode.
func (h *AuthServer) VerifyAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body verifyAPIKeyRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	valid, apiKey, err := h.vault.Verify(ctx, body.Key, body.Secret, clientIP(req))
	if err != nil {
		return err
	}

	response := verifyAPIKeyResponse{Valid: valid}
	if valid {
		response.ProfileID = apiKey.ProfileID
		response.Scope = apiKey.Scope
	}
	return writeJSON(rw, http.StatusOK, response)
}

func (h *AuthServer) RevokeAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	apiKeyID := mux.Vars(req)["ApiKeyId"]

	var body revokeAPIKeyRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not decode request body")
		return err
	}

	err = h.vault.Revoke(ctx, apiKeyID, profileID, body.Reason)
	if err != nil {
		return err
	}

	rw.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *AuthServer) ReactivateAPIKeyEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	profileID := utils.ProfileIDFromContext(ctx)
	if profileID == "" {
		return errors.New("no credentials detected")
	}

	apiKeyID := mux.Vars(req)["ApiKeyId"]

	// Ownership gates reactivation the same way it gates revocation.
	apiKey, err := h.vault.Get(ctx, apiKeyID, profileID)
	if err != nil {
		return err
	}
	if apiKey == nil {
		return business.ErrAPIKeyNotFound
	}

	err = h.vault.Reactivate(ctx, apiKeyID)
	if err != nil {
		return err
	}

	rw.WriteHeader(http.StatusNoContent)
	return nil
}
