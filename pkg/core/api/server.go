/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api provides the HTTP API server for VisionConnect
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/carverauto/visionconnect/pkg/core/auth"
	"github.com/carverauto/visionconnect/pkg/db"
	srHttp "github.com/carverauto/visionconnect/pkg/http"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/signaling"
)

const maxRequestBodyBytes = 64 * 1024

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		corsConfig: config,
	}

	for _, o := range options {
		o(s)
	}

	if s.logger == nil {
		s.logger = logger.Wrap(logger.WithComponent("api"))
	}

	s.setupRoutes()

	return s
}

// WithProvisioning adds the device provisioning service to the API server
func WithProvisioning(p Provisioner) func(server *APIServer) {
	return func(server *APIServer) {
		server.provisioner = p
	}
}

// WithAuthService adds an authentication service to the API server. When
// requireAuth is set, owner scoped routes reject requests without a valid
// bearer token.
func WithAuthService(a auth.AuthService, requireAuth bool) func(server *APIServer) {
	return func(server *APIServer) {
		server.authService = a
		server.requireAuth = requireAuth && a != nil
	}
}

// WithSignalingHandler mounts the websocket relay at /ws
func WithSignalingHandler(h http.Handler) func(server *APIServer) {
	return func(server *APIServer) {
		server.signaling = h
	}
}

// WithConnectionCounter exposes relay occupancy on /health
func WithConnectionCounter(c ConnectionCounter) func(server *APIServer) {
	return func(server *APIServer) {
		server.connections = c
	}
}

func WithLogger(log logger.Logger) func(server *APIServer) {
	return func(server *APIServer) {
		server.logger = log
	}
}

// ServeHTTP lets the server be handed to an http.Server directly.
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures the HTTP routes for the API server.
func (s *APIServer) setupRoutes() {
	s.setupMiddleware()

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.signaling != nil {
		s.router.Handle("/ws", s.signaling)
	}

	s.setupAuthRoutes()
	s.setupProvisioningRoutes()
	s.setupDeviceRoutes()
}

// setupMiddleware configures CORS middleware.
func (s *APIServer) setupMiddleware() {
	corsConfig := s.corsConfig

	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, corsConfig, s.logger)
	})
}

func (s *APIServer) setupAuthRoutes() {
	s.router.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)
}

// setupProvisioningRoutes registers the onboarding flow and its legacy aliases.
// Activation and status polling are keyed by the device token alone.
func (s *APIServer) setupProvisioningRoutes() {
	s.router.Handle("/provision/initiate", s.ownerScoped(http.HandlerFunc(s.handleInitiate))).
		Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/provision/activate", s.handleActivate).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/provision/status/{device_token}", s.handleStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/api/camera/models", s.handleCameraModels).Methods(http.MethodGet)
	s.router.Handle("/api/camera/onboard", s.ownerScoped(http.HandlerFunc(s.handleInitiate))).
		Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/camera/activate", s.handleActivate).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/camera/check-status/{device_token}", s.handleStatus).Methods(http.MethodGet)
}

func (s *APIServer) setupDeviceRoutes() {
	devices := s.router.PathPrefix("/api/camera/devices").Subrouter()
	devices.Use(s.ownerScoped)

	devices.HandleFunc("", s.handleListDevices).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", s.handleGetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", s.handleDeleteDevice).Methods(http.MethodDelete)
}

// ownerScoped resolves the caller identity for routes that act on an owner's devices.
func (s *APIServer) ownerScoped(next http.Handler) http.Handler {
	if s.requireAuth {
		return auth.AuthMiddleware(s.authService)(next)
	}

	return s.optionalAuth(next)
}

// optionalAuth attaches a bearer identity when one is presented and lets
// anonymous requests through for the owner_id fallback.
func (s *APIServer) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r)
		if token == "" || s.authService == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.authService.VerifyToken(r.Context(), token)
		if errors.Is(err, auth.ErrAuthDisabled) {
			next.ServeHTTP(w, r)
			return
		}

		if err != nil {
			writeError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// ownerFromRequest prefers the verified user over a client supplied owner id.
func ownerFromRequest(r *http.Request, fallback string) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.ID
	}

	return strings.TrimSpace(fallback)
}

// @Summary Service health
// @Description Liveness probe with live signaling registrations per role
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := models.HealthResponse{
		Status: "ok",
		Connections: map[string]int{
			string(signaling.RoleDevice): 0,
			string(signaling.RoleUser):   0,
		},
	}

	if s.connections != nil {
		for role, n := range s.connections.Counts() {
			resp.Connections[string(role)] = n
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	return json.NewDecoder(r.Body).Decode(dst)
}

// sourceIP returns the first X-Forwarded-For hop, or the peer address.
func sourceIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{Message: message, Status: statusCode}
	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// errorStatus maps service sentinels to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDeviceInvalidRequest),
		errors.Is(err, db.ErrUserExists),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordRequired):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDeviceTokenConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAuthDisabled),
		errors.Is(err, models.ErrProvisioningDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports client errors verbatim and hides internal ones.
func (s *APIServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)

	message := err.Error()

	switch status {
	case http.StatusNotFound:
		message = "Device not found"
	case http.StatusInternalServerError:
		message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}

	writeError(w, message, status)
}
