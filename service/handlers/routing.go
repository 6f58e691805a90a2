package handlers

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pitabwire/frame"
)

func (h *AuthServer) addHandler(router *mux.Router,
	f func(w http.ResponseWriter, r *http.Request) error, path string, name string, method string) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(frame.SvcToContext(r.Context(), h.service))

		err := f(w, r)
		if err != nil {
			h.writeError(r.Context(), w, err, httpStatusForError(err), "could not process request")
		}
	})

	router.Path(path).
		Name(name).
		Handler(handler).
		Methods(method)
}

// SetupRouterV1 builds the HTTP surface: browser endpoints under /s behind
// csrf and the device cookie, api endpoints under /api behind bearer auth,
// and the unauthenticated key verification endpoint.
func (h *AuthServer) SetupRouterV1(ctx context.Context) http.Handler {

	log := h.service.Log(ctx)
	router := mux.NewRouter().StrictSlash(true)

	csrfSecret, err := hex.DecodeString(h.config.CsrfSecret)
	if err != nil {
		log.Fatal("Failed to decode csrf secret :", err)
	}

	csrfMiddleware := csrf.Protect(csrfSecret, csrf.Secure(true))

	sRouter := router.PathPrefix("/s").Subrouter()
	sRouter.Use(csrfMiddleware)
	sRouter.Use(h.deviceIDMiddleware)

	authRouter := router.PathPrefix("/api").Subrouter()
	authRouter.Use(h.bearerAuthMiddleware)

	// Token issuance and key verification authenticate by credential, not
	// by bearer token, so they sit outside the /api subrouter.
	h.addHandler(router, h.LoginEndpoint, "/login", "LoginEndpoint", "POST")
	h.addHandler(router, h.RegisterEndpoint, "/register", "RegisterEndpoint", "POST")
	h.addHandler(router, h.VerifyAPIKeyEndpoint, "/verify/key", "VerifyApiKeyEndpoint", "POST")

	h.addHandler(sRouter, h.SubmitLoginEndpoint, "/login", "SubmitLoginEndpoint", "POST")
	h.addHandler(sRouter, h.SubmitRegisterEndpoint, "/register", "SubmitRegisterEndpoint", "POST")
	h.addHandler(sRouter, h.LogoutEndpoint, "/logout", "LogoutEndpoint", "POST")

	h.addHandler(authRouter, h.CreateAPIKeyEndpoint, "/key", "CreateApiKeyEndpoint", "PUT")
	h.addHandler(authRouter, h.ListAPIKeyEndpoint, "/key", "ListApiKeyEndpoint", "GET")
	h.addHandler(authRouter, h.GetAPIKeyEndpoint, "/key/{ApiKeyId}", "GetApiKeyEndpoint", "GET")
	h.addHandler(authRouter, h.RevokeAPIKeyEndpoint, "/key/{ApiKeyId}", "RevokeApiKeyEndpoint", "DELETE")
	h.addHandler(authRouter, h.ReactivateAPIKeyEndpoint, "/key/{ApiKeyId}/reactivate", "ReactivateApiKeyEndpoint", "POST")
	h.addHandler(authRouter, h.ListSessionsEndpoint, "/sessions", "ListSessionsEndpoint", "GET")
	h.addHandler(authRouter, h.RevokeSessionEndpoint, "/sessions/{SessionId}", "RevokeSessionEndpoint", "DELETE")
	h.addHandler(authRouter, h.ApiLogoutEndpoint, "/logout", "ApiLogoutEndpoint", "POST")

	return handlers.RecoveryHandler()(router)
}
