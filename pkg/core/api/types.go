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

	"github.com/gorilla/mux"

	"github.com/carverauto/visionconnect/pkg/core/auth"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

// APIServer serves the provisioning API and mounts the signaling endpoint.
type APIServer struct {
	router      *mux.Router
	provisioner Provisioner
	authService auth.AuthService
	requireAuth bool
	signaling   http.Handler
	connections ConnectionCounter
	corsConfig  models.CORSConfig
	logger      logger.Logger
}

// InitiateRequest is posted by the mobile app to start onboarding a camera.
type InitiateRequest struct {
	OwnerID      string `json:"owner_id"`
	CameraModel  string `json:"camera_model"`
	WifiSSID     string `json:"wifi_ssid"`
	WifiPassword string `json:"wifi_password"`
	DeviceName   string `json:"device_name"`
}

// InitiateResponse returns the pending record and its onboarding payload.
type InitiateResponse struct {
	DeviceID    string              `json:"device_id"`
	DeviceToken string              `json:"device_token"`
	DeviceName  string              `json:"device_name"`
	Status      models.DeviceStatus `json:"status"`
	QRPayload   string              `json:"qr_payload"`
	QRCode      string              `json:"qr_code"`
	QRData      map[string]string   `json:"qr_data"`
}

// ActivateRequest is posted by the camera after it joins the network.
type ActivateRequest struct {
	DeviceToken string  `json:"device_token"`
	DeviceUID   string  `json:"device_uid"`
	LocalIP     *string `json:"local_ip,omitempty"`
}

type ActivateResponse struct {
	DeviceID string              `json:"device_id"`
	Status   models.DeviceStatus `json:"status"`
}

// CredentialsRequest is shared by register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type DeleteResponse struct {
	DeviceID string `json:"device_id"`
	Deleted  bool   `json:"deleted"`
}
