package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/visionconnect/pkg/db"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/qrpayload"
)

var errStoreDown = errors.New("store down")

func fixedClock() func() time.Time {
	ts := time.Date(2025, time.May, 5, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newTestService(store Store, pub EventPublisher) *Service {
	return NewService(store, pub, Options{
		PublicURL: "https://vc.example.com",
		Now:       fixedClock(),
	}, logger.NewTestLogger())
}

func initiateReq() *models.DeviceInitiateRequest {
	return &models.DeviceInitiateRequest{
		OwnerID:      "user-1",
		CameraModel:  "CP_PLUS_WIFI_V2",
		WifiSSID:     "HomeNet",
		WifiPassword: "hunter2",
		DeviceName:   "Garage",
	}
}

func TestInitiateThenStatusIsPending(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(db.NewMemoryStore(), nil)

	res, err := svc.Initiate(ctx, initiateReq())
	require.NoError(t, err)
	require.NotNil(t, res.Device)

	assert.Equal(t, models.DeviceStatusPending, res.Device.Status)
	assert.NotEmpty(t, res.Device.DeviceToken)
	assert.NotEmpty(t, res.Device.DeviceID)
	assert.Equal(t, "Garage", res.Device.DeviceName)
	assert.True(t, strings.HasPrefix(res.QRCode, "data:image/png;base64,"))
	assert.Equal(t, "https://vc.example.com", res.QRData["server_url"])
	assert.Equal(t, res.Device.DeviceToken, res.QRData["device_token"])
	assert.Equal(t, qrpayload.Version, res.QRData["version"])

	fields, err := qrpayload.Decode(res.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", fields.WifiPassword)
	assert.Equal(t, "user-1", fields.UserID)

	status, err := svc.CheckStatus(ctx, res.Device.DeviceToken)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusPending, status.Status)
	assert.False(t, status.Activated)
	assert.Equal(t, res.Device.DeviceID, status.DeviceID)
}

func TestInitiateCompactPayloadKeepsSubset(t *testing.T) {
	svc := NewService(db.NewMemoryStore(), nil, Options{PublicURL: "http://localhost:8000", Compact: true}, nil)

	res, err := svc.Initiate(context.Background(), initiateReq())
	require.NoError(t, err)

	assert.Equal(t, res.Device.DeviceToken, res.QRData["device_token"])
	assert.Equal(t, "HomeNet", res.QRData["wifi_ssid"])
	assert.NotContains(t, res.QRData, "server_url")
	assert.NotContains(t, res.QRData, "camera_model")
}

func TestInitiateDefaultsDeviceName(t *testing.T) {
	req := initiateReq()
	req.DeviceName = "  "

	res, err := newTestService(db.NewMemoryStore(), nil).Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, defaultDeviceName, res.Device.DeviceName)
}

func TestInitiateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := newTestService(store, nil)

	tests := []struct {
		name   string
		mutate func(*models.DeviceInitiateRequest)
		want   error
	}{
		{"owner", func(r *models.DeviceInitiateRequest) { r.OwnerID = "" }, models.ErrDeviceOwnerRequired},
		{"model", func(r *models.DeviceInitiateRequest) { r.CameraModel = "" }, models.ErrDeviceModelRequired},
		{"ssid", func(r *models.DeviceInitiateRequest) { r.WifiSSID = "" }, models.ErrDeviceSSIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := initiateReq()
			tt.mutate(req)

			_, err := svc.Initiate(context.Background(), req)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, models.ErrDeviceInvalidRequest)
		})
	}

	_, err := svc.Initiate(context.Background(), nil)
	require.ErrorIs(t, err, models.ErrDeviceInvalidRequest)
}

func TestInitiateDistinctTokens(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(db.NewMemoryStore(), nil)

	const n = 50

	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		res, err := svc.Initiate(ctx, initiateReq())
		require.NoError(t, err)

		_, dup := seen[res.Device.DeviceToken]
		require.False(t, dup, "token reused at %d", i)

		seen[res.Device.DeviceToken] = struct{}{}
	}

	list, err := svc.ListDevices(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func TestInitiateTokenConflictIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	pub := NewMockEventPublisher(ctrl)

	store.EXPECT().CreateDevice(gomock.Any(), gomock.Any()).Return(models.ErrDeviceTokenConflict).Times(1)
	pub.EXPECT().PublishDeviceEvent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := newTestService(store, pub).Initiate(context.Background(), initiateReq())
	require.ErrorIs(t, err, models.ErrDeviceTokenConflict)
}

func TestActivateTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	pub := NewMockEventPublisher(ctrl)

	gomock.InOrder(
		pub.EXPECT().PublishDeviceEvent(gomock.Any(), models.DeviceEventProvisioned, gomock.Any()).Return(nil),
		pub.EXPECT().PublishDeviceEvent(gomock.Any(), models.DeviceEventActivated, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.DeviceEventType, data *models.DeviceLifecycleEventData) error {
				assert.Equal(t, "CAM-42", data.DeviceUID)
				assert.Equal(t, "192.168.0.7", data.LocalIP)
				assert.Equal(t, "203.0.113.5", data.SourceIP)
				return nil
			}),
	)

	svc := newTestService(db.NewMemoryStore(), pub)

	res, err := svc.Initiate(ctx, initiateReq())
	require.NoError(t, err)

	ip := "192.168.0.7"
	rec, err := svc.Activate(ctx, &models.DeviceActivateRequest{
		DeviceToken: res.Device.DeviceToken,
		DeviceUID:   "CAM-42",
		LocalIP:     &ip,
		SourceIP:    "203.0.113.5",
	})
	require.NoError(t, err)
	assert.Equal(t, res.Device.DeviceID, rec.DeviceID)
	assert.Equal(t, models.DeviceStatusActive, rec.Status)

	status, err := svc.CheckStatus(ctx, res.Device.DeviceToken)
	require.NoError(t, err)
	assert.True(t, status.Activated)
	assert.Equal(t, models.DeviceStatusActive, status.Status)

	_, err = svc.Activate(ctx, &models.DeviceActivateRequest{
		DeviceToken: res.Device.DeviceToken,
		DeviceUID:   "CAM-43",
	})
	require.ErrorIs(t, err, models.ErrDeviceNotFound)

	stored, err := svc.GetDevice(ctx, "user-1", res.Device.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, "CAM-42", *stored.DeviceUID)
}

func TestActivateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(db.NewMemoryStore(), nil)

	res, err := svc.Initiate(ctx, initiateReq())
	require.NoError(t, err)

	const m = 32

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losses  int
	)

	for i := 0; i < m; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			uid := fmt.Sprintf("CAM-%02d", i)

			_, err := svc.Activate(ctx, &models.DeviceActivateRequest{DeviceToken: res.Device.DeviceToken, DeviceUID: uid})

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				winners = append(winners, uid)
				return
			}

			if errors.Is(err, models.ErrDeviceNotFound) {
				losses++
			}
		}(i)
	}

	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, m-1, losses)

	rec, err := svc.GetDevice(ctx, "user-1", res.Device.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], *rec.DeviceUID)
}

func TestActivateValidationAndUnknownToken(t *testing.T) {
	svc := newTestService(db.NewMemoryStore(), nil)

	_, err := svc.Activate(context.Background(), &models.DeviceActivateRequest{DeviceUID: "x"})
	require.ErrorIs(t, err, models.ErrDeviceTokenRequired)

	_, err = svc.Activate(context.Background(), &models.DeviceActivateRequest{DeviceToken: "t"})
	require.ErrorIs(t, err, models.ErrDeviceUIDRequired)

	_, err = svc.Activate(context.Background(), &models.DeviceActivateRequest{DeviceToken: "nope", DeviceUID: "x"})
	require.ErrorIs(t, err, models.ErrDeviceNotFound)

	_, err = svc.CheckStatus(context.Background(), "nope")
	require.ErrorIs(t, err, models.ErrDeviceNotFound)
}

func TestActivateStoreFailureHasNoSideEffects(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	pub := NewMockEventPublisher(ctrl)

	store.EXPECT().ActivateDevice(gomock.Any(), "tok", gomock.Any()).Return(nil, errStoreDown).Times(1)
	pub.EXPECT().PublishDeviceEvent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := newTestService(store, pub).Activate(context.Background(), &models.DeviceActivateRequest{
		DeviceToken: "tok",
		DeviceUID:   "CAM",
	})
	require.ErrorIs(t, err, errStoreDown)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockEventPublisher(ctrl)

	pub.EXPECT().PublishDeviceEvent(gomock.Any(), models.DeviceEventProvisioned, gomock.Any()).Return(errStoreDown)

	res, err := newTestService(db.NewMemoryStore(), pub).Initiate(context.Background(), initiateReq())
	require.NoError(t, err)
	assert.NotNil(t, res.Device)
}

func TestDeviceOwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(db.NewMemoryStore(), nil)

	res, err := svc.Initiate(ctx, initiateReq())
	require.NoError(t, err)

	_, err = svc.GetDevice(ctx, "someone-else", res.Device.DeviceID)
	require.ErrorIs(t, err, models.ErrDeviceNotFound)

	require.ErrorIs(t, svc.DeleteDevice(ctx, "someone-else", res.Device.DeviceID), models.ErrDeviceNotFound)
	require.NoError(t, svc.DeleteDevice(ctx, "user-1", res.Device.DeviceID))

	_, err = svc.CheckStatus(ctx, res.Device.DeviceToken)
	require.ErrorIs(t, err, models.ErrDeviceNotFound)

	_, err = svc.ListDevices(ctx, "")
	require.ErrorIs(t, err, models.ErrDeviceOwnerRequired)
}

func TestListDevicesUsesDefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListDevicesByOwner(gomock.Any(), "user-1", DefaultListLimit).Return([]*models.DeviceRecord{}, nil)

	list, err := newTestService(store, nil).ListDevices(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCameraModelsCatalog(t *testing.T) {
	catalog := CameraModels()
	require.Len(t, catalog, 3)

	for _, m := range catalog {
		assert.True(t, m.SupportsQR, m.ModelID)
	}

	assert.Equal(t, "GENERIC_ONVIF", catalog[2].ModelID)
}
