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
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/provisioning"
)

// @Summary Start camera onboarding
// @Description Creates a pending device record and returns the QR payload the camera scans
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param request body InitiateRequest true "Onboarding request"
// @Success 201 {object} InitiateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /provision/initiate [post]
func (s *APIServer) handleInitiate(w http.ResponseWriter, r *http.Request) {
	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	var req InitiateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.provisioner.Initiate(r.Context(), &models.DeviceInitiateRequest{
		OwnerID:      ownerFromRequest(r, req.OwnerID),
		CameraModel:  req.CameraModel,
		WifiSSID:     req.WifiSSID,
		WifiPassword: req.WifiPassword,
		DeviceName:   req.DeviceName,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, InitiateResponse{
		DeviceID:    result.Device.DeviceID,
		DeviceToken: result.Device.DeviceToken,
		DeviceName:  result.Device.DeviceName,
		Status:      result.Device.Status,
		QRPayload:   result.QRPayload,
		QRCode:      result.QRCode,
		QRData:      result.QRData,
	})
}

// @Summary Activate a camera
// @Description Called by the camera with the token from its QR code. Succeeds once per token.
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param request body ActivateRequest true "Activation request"
// @Success 200 {object} ActivateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /provision/activate [post]
func (s *APIServer) handleActivate(w http.ResponseWriter, r *http.Request) {
	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	var req ActivateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.provisioner.Activate(r.Context(), &models.DeviceActivateRequest{
		DeviceToken: req.DeviceToken,
		DeviceUID:   req.DeviceUID,
		LocalIP:     req.LocalIP,
		SourceIP:    sourceIP(r),
	})
	if errors.Is(err, models.ErrDeviceNotFound) {
		writeError(w, "Device token not found or already activated", http.StatusNotFound)
		return
	}

	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ActivateResponse{DeviceID: rec.DeviceID, Status: rec.Status})
}

// @Summary Poll onboarding status
// @Tags Provisioning
// @Produce json
// @Param device_token path string true "Device token"
// @Success 200 {object} models.DeviceStatusResult
// @Failure 404 {object} models.ErrorResponse
// @Router /provision/status/{device_token} [get]
func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	status, err := s.provisioner.CheckStatus(r.Context(), mux.Vars(r)["device_token"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *APIServer) handleCameraModels(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, provisioning.CameraModels())
}
