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

	"github.com/carverauto/visionconnect/pkg/models"
)

// @Summary List the caller's cameras
// @Tags Devices
// @Produce json
// @Success 200 {array} models.DeviceRecord
// @Failure 400 {object} models.ErrorResponse
// @Router /api/camera/devices [get]
func (s *APIServer) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	devices, err := s.provisioner.ListDevices(r.Context(), ownerFromRequest(r, r.URL.Query().Get("owner_id")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, devices)
}

func (s *APIServer) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r, r.URL.Query().Get("owner_id"))
	if owner == "" {
		writeError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	rec, err := s.provisioner.GetDevice(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDevice removes a record owned by the caller. Records of other
// owners report not found.
func (s *APIServer) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r, r.URL.Query().Get("owner_id"))
	if owner == "" {
		writeError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	if s.provisioner == nil {
		s.writeServiceError(w, r, models.ErrProvisioningDisabled)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.provisioner.DeleteDevice(r.Context(), owner, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DeleteResponse{DeviceID: id, Deleted: true})
}
