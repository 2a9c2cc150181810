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

package api

import (
	"net/http"
)

// @Summary Register an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/register [post]
func (s *APIServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		writeError(w, "Authentication is not configured", http.StatusServiceUnavailable)
		return
	}

	var creds CredentialsRequest
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.authService.Register(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, RegisterResponse{UserID: user.ID, Email: user.Email})
}

// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} models.Token
// @Failure 401 {object} models.ErrorResponse
// @Router /api/login [post]
func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		writeError(w, "Authentication is not configured", http.StatusServiceUnavailable)
		return
	}

	var creds CredentialsRequest
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.authService.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, token)
}
