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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/visionconnect/pkg/core/auth"
	"github.com/carverauto/visionconnect/pkg/db"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/signaling"
)

func newTestServer(options ...func(*APIServer)) *APIServer {
	options = append(options, WithLogger(logger.NewTestLogger()))

	return NewAPIServer(models.CORSConfig{}, options...)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func pendingResult(owner string) *models.DeviceInitiateResult {
	return &models.DeviceInitiateResult{
		Device: &models.DeviceRecord{
			DeviceID:    "dev-1",
			OwnerID:     owner,
			DeviceName:  "Porch",
			DeviceToken: "tok-1",
			Status:      models.DeviceStatusPending,
			CameraModel: "GENERIC_ONVIF",
			WifiSSID:    "home",
			CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		QRPayload: `{"t":"tok-1"}`,
		QRCode:    "data:image/png;base64,AAAA",
		QRData:    map[string]string{"device_token": "tok-1"},
	}
}

func TestHealthReportsConnectionCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	counter := NewMockConnectionCounter(ctrl)
	counter.EXPECT().Counts().Return(map[signaling.Role]int{signaling.RoleDevice: 2})

	s := newTestServer(WithConnectionCounter(counter))

	rec := doRequest(t, s, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","connections":{"device":2,"user":0}}`, rec.Body.String())
}

func TestHealthWithoutRelay(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","connections":{"device":0,"user":0}}`, rec.Body.String())
}

func TestInitiateUsesBodyOwnerWithoutAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)

	prov.EXPECT().Initiate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error) {
			assert.Equal(t, "owner-1", req.OwnerID)
			assert.Equal(t, "GENERIC_ONVIF", req.CameraModel)
			assert.Equal(t, "home", req.WifiSSID)
			assert.Equal(t, "secret", req.WifiPassword)
			assert.Equal(t, "Porch", req.DeviceName)

			return pendingResult(req.OwnerID), nil
		})

	s := newTestServer(WithProvisioning(prov))

	rec := doRequest(t, s, http.MethodPost, "/provision/initiate", InitiateRequest{
		OwnerID:      "owner-1",
		CameraModel:  "GENERIC_ONVIF",
		WifiSSID:     "home",
		WifiPassword: "secret",
		DeviceName:   "Porch",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp InitiateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dev-1", resp.DeviceID)
	assert.Equal(t, "tok-1", resp.DeviceToken)
	assert.Equal(t, models.DeviceStatusPending, resp.Status)
	assert.Equal(t, `{"t":"tok-1"}`, resp.QRPayload)
	assert.Equal(t, "data:image/png;base64,AAAA", resp.QRCode)
	assert.Equal(t, "tok-1", resp.QRData["device_token"])
}

func TestInitiatePrefersBearerIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	authSvc := auth.NewMockAuthService(ctrl)

	authSvc.EXPECT().VerifyToken(gomock.Any(), "good").Return(&models.User{ID: "user-9"}, nil)
	prov.EXPECT().Initiate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error) {
			assert.Equal(t, "user-9", req.OwnerID)
			return pendingResult(req.OwnerID), nil
		})

	s := newTestServer(WithProvisioning(prov), WithAuthService(authSvc, false))

	rec := doRequest(t, s, http.MethodPost, "/api/camera/onboard", InitiateRequest{
		OwnerID:     "spoofed",
		CameraModel: "GENERIC_ONVIF",
		WifiSSID:    "home",
	}, bearer("good"))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInitiateRejectsInvalidBearer(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	authSvc := auth.NewMockAuthService(ctrl)

	authSvc.EXPECT().VerifyToken(gomock.Any(), "bad").Return(nil, auth.ErrInvalidToken)

	s := newTestServer(WithProvisioning(prov), WithAuthService(authSvc, false))

	rec := doRequest(t, s, http.MethodPost, "/provision/initiate", InitiateRequest{OwnerID: "owner-1"}, bearer("bad"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, rec).Status)
}

func TestInitiateIgnoresBearerWhenAuthDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	authSvc := auth.NewMockAuthService(ctrl)

	authSvc.EXPECT().VerifyToken(gomock.Any(), "any").Return(nil, auth.ErrAuthDisabled)
	prov.EXPECT().Initiate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error) {
			assert.Equal(t, "owner-1", req.OwnerID)
			return pendingResult(req.OwnerID), nil
		})

	s := newTestServer(WithProvisioning(prov), WithAuthService(authSvc, false))

	rec := doRequest(t, s, http.MethodPost, "/provision/initiate", InitiateRequest{OwnerID: "owner-1"}, bearer("any"))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequireAuthRejectsAnonymousOwnerRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	authSvc := auth.NewMockAuthService(ctrl)

	s := newTestServer(WithProvisioning(prov), WithAuthService(authSvc, true))

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/provision/initiate", InitiateRequest{OwnerID: "owner-1"}},
		{http.MethodPost, "/api/camera/onboard", InitiateRequest{OwnerID: "owner-1"}},
		{http.MethodGet, "/api/camera/devices?owner_id=owner-1", nil},
		{http.MethodGet, "/api/camera/devices/dev-1?owner_id=owner-1", nil},
		{http.MethodDelete, "/api/camera/devices/dev-1?owner_id=owner-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, s, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireAuthLeavesCameraRoutesOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	authSvc := auth.NewMockAuthService(ctrl)

	prov.EXPECT().CheckStatus(gomock.Any(), "tok-1").Return(&models.DeviceStatusResult{
		DeviceID: "dev-1",
		Status:   models.DeviceStatusPending,
	}, nil)
	prov.EXPECT().Activate(gomock.Any(), gomock.Any()).Return(&models.DeviceRecord{
		DeviceID: "dev-1",
		Status:   models.DeviceStatusActive,
	}, nil)

	s := newTestServer(WithProvisioning(prov), WithAuthService(authSvc, true))

	rec := doRequest(t, s, http.MethodGet, "/provision/status/tok-1", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/provision/activate", ActivateRequest{DeviceToken: "tok-1", DeviceUID: "cam-1"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitiateMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("%w: %w", models.ErrDeviceInvalidRequest, models.ErrDeviceSSIDRequired), http.StatusBadRequest},
		{"conflict", models.ErrDeviceTokenConflict, http.StatusConflict},
		{"store failure", db.ErrFailedToInsert, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			prov := NewMockProvisioner(ctrl)
			prov.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			s := newTestServer(WithProvisioning(prov))

			rec := doRequest(t, s, http.MethodPost, "/provision/initiate", InitiateRequest{OwnerID: "o"}, nil)

			require.Equal(t, tt.want, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.want, resp.Status)

			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, "Internal server error", resp.Message)
			}
		})
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	s := newTestServer(WithProvisioning(prov))

	for _, path := range []string{"/provision/initiate", "/provision/activate", "/api/camera/activate"} {
		rec := doRequest(t, s, http.MethodPost, path, "{not json", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestActivatePassesCameraFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)

	prov.EXPECT().Activate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *models.DeviceActivateRequest) (*models.DeviceRecord, error) {
			assert.Equal(t, "tok-1", req.DeviceToken)
			assert.Equal(t, "cam-1", req.DeviceUID)
			require.NotNil(t, req.LocalIP)
			assert.Equal(t, "192.168.1.20", *req.LocalIP)
			assert.Equal(t, "203.0.113.7", req.SourceIP)

			return &models.DeviceRecord{DeviceID: "dev-1", Status: models.DeviceStatusActive}, nil
		})

	s := newTestServer(WithProvisioning(prov))

	rec := doRequest(t, s, http.MethodPost, "/api/camera/activate",
		`{"device_token":"tok-1","device_uid":"cam-1","local_ip":"192.168.1.20"}`,
		http.Header{"X-Forwarded-For": []string{"203.0.113.7, 10.0.0.1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"device_id":"dev-1","status":"active"}`, rec.Body.String())
}

func TestActivateUnknownTokenIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)
	prov.EXPECT().Activate(gomock.Any(), gomock.Any()).Return(nil, models.ErrDeviceNotFound)

	s := newTestServer(WithProvisioning(prov))

	rec := doRequest(t, s, http.MethodPost, "/provision/activate", ActivateRequest{DeviceToken: "nope", DeviceUID: "cam"}, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Device token not found or already activated", decodeError(t, rec).Message)
}

func TestStatusRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)

	prov.EXPECT().CheckStatus(gomock.Any(), "tok-1").Return(&models.DeviceStatusResult{
		DeviceID:  "dev-1",
		Status:    models.DeviceStatusActive,
		Activated: true,
	}, nil).Times(2)
	prov.EXPECT().CheckStatus(gomock.Any(), "missing").Return(nil, models.ErrDeviceNotFound)

	s := newTestServer(WithProvisioning(prov))

	for _, path := range []string{"/provision/status/tok-1", "/api/camera/check-status/tok-1"} {
		rec := doRequest(t, s, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"device_id":"dev-1","status":"active","activated":true}`, rec.Body.String())
	}

	rec := doRequest(t, s, http.MethodGet, "/provision/status/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvisioningUnavailable(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodGet, "/provision/status/tok-1", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeviceRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := NewMockProvisioner(ctrl)

	prov.EXPECT().ListDevices(gomock.Any(), "owner-1").Return([]*models.DeviceRecord{
		{DeviceID: "dev-1", OwnerID: "owner-1", Status: models.DeviceStatusPending},
	}, nil)
	prov.EXPECT().GetDevice(gomock.Any(), "owner-1", "dev-2").Return(nil, models.ErrDeviceNotFound)
	prov.EXPECT().DeleteDevice(gomock.Any(), "owner-1", "dev-1").Return(nil)

	s := newTestServer(WithProvisioning(prov))

	rec := doRequest(t, s, http.MethodGet, "/api/camera/devices?owner_id=owner-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []models.DeviceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "dev-1", devices[0].DeviceID)

	rec = doRequest(t, s, http.MethodGet, "/api/camera/devices/dev-2?owner_id=owner-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/camera/devices/dev-1?owner_id=owner-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"device_id":"dev-1","deleted":true}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/camera/devices/dev-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCameraModels(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/camera/models", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var catalog []models.CameraModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	require.Len(t, catalog, 3)

	for _, m := range catalog {
		assert.True(t, m.SupportsQR, m.ModelID)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := auth.NewMockAuthService(ctrl)

	gomock.InOrder(
		authSvc.EXPECT().Register(gomock.Any(), "a@example.com", "pw").
			Return(&models.User{ID: "user-1", Email: "a@example.com"}, nil),
		authSvc.EXPECT().Register(gomock.Any(), "a@example.com", "pw").Return(nil, db.ErrUserExists),
		authSvc.EXPECT().Login(gomock.Any(), "a@example.com", "pw").
			Return(&models.Token{AccessToken: "jwt", TokenType: "bearer"}, nil),
		authSvc.EXPECT().Login(gomock.Any(), "a@example.com", "wrong").Return(nil, auth.ErrInvalidCredentials),
	)

	s := newTestServer(WithAuthService(authSvc, false))
	creds := CredentialsRequest{Email: "a@example.com", Password: "pw"}

	rec := doRequest(t, s, http.MethodPost, "/api/register", creds, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"user_id":"user-1","email":"a@example.com"}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodPost, "/api/register", creds, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/login", creds, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var token models.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "jwt", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	rec = doRequest(t, s, http.MethodPost, "/api/login", CredentialsRequest{Email: "a@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrDeviceNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", models.ErrDeviceNotFound), http.StatusNotFound},
		{models.ErrDeviceInvalidRequest, http.StatusBadRequest},
		{db.ErrUserExists, http.StatusBadRequest},
		{auth.ErrInvalidEmail, http.StatusBadRequest},
		{auth.ErrPasswordRequired, http.StatusBadRequest},
		{models.ErrDeviceTokenConflict, http.StatusConflict},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrAuthDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}

func TestSourceIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", sourceIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 ")
	assert.Equal(t, "203.0.113.9", sourceIP(req))
}
