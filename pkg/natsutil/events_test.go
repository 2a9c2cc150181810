package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type publishedMsg struct {
	subject string
	data    []byte
}

type fakeJetStream struct {
	published  []publishedMsg
	publishErr error

	streamErr  error
	createErr  error
	createdCfg *jetstream.StreamConfig
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}

	f.published = append(f.published, publishedMsg{subject: subject, data: data})

	return &jetstream.PubAck{Stream: "visionconnect-events", Sequence: uint64(len(f.published))}, nil
}

func (f *fakeJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.streamErr
}

func (f *fakeJetStream) CreateOrUpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.createdCfg = &cfg
	return nil, f.createErr
}

func TestPublishDeviceEvent(t *testing.T) {
	js := &fakeJetStream{}
	pub := newEventPublisher(js, "visionconnect-events", logger.NewTestLogger())
	ts := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

	err := pub.PublishDeviceEvent(context.Background(), models.DeviceEventActivated, &models.DeviceLifecycleEventData{
		DeviceID:    "dev-1",
		OwnerID:     "user-1",
		DeviceUID:   "CAM-1",
		CameraModel: "GENERIC_ONVIF",
		Status:      models.DeviceStatusActive,
		Timestamp:   ts,
	})
	require.NoError(t, err)
	require.Len(t, js.published, 1)
	assert.Equal(t, "devices.activated", js.published[0].subject)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(js.published[0].data, &event))

	assert.Equal(t, "1.0", event["specversion"])
	assert.Equal(t, "com.carverauto.visionconnect.device.activated", event["type"])
	assert.Equal(t, "devices.activated", event["subject"])
	assert.Equal(t, EventID(models.DeviceEventActivated, "dev-1"), event["id"])

	data, ok := event["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CAM-1", data["device_uid"])
	assert.NotContains(t, data, "device_token")
}

func TestEventID(t *testing.T) {
	t.Parallel()

	id := EventID(models.DeviceEventActivated, "dev-1")
	assert.Equal(t, id, EventID(models.DeviceEventActivated, "dev-1"))
	assert.NotEqual(t, id, EventID(models.DeviceEventProvisioned, "dev-1"))
	assert.NotEqual(t, id, EventID(models.DeviceEventActivated, "dev-2"))
	assert.NotEqual(t, EventID(models.DeviceEventActivated, ""), EventID(models.DeviceEventActivated, ""))
}

func TestPublishDeviceEventError(t *testing.T) {
	js := &fakeJetStream{publishErr: errTestFixture}
	pub := newEventPublisher(js, "s", nil)

	err := pub.PublishDeviceEvent(context.Background(), models.DeviceEventProvisioned, &models.DeviceLifecycleEventData{})
	require.ErrorIs(t, err, errTestFixture)
}

func TestEnsureStreamCreatesMissingStream(t *testing.T) {
	js := &fakeJetStream{streamErr: jetstream.ErrStreamNotFound}

	err := ensureStream(context.Background(), js, "visionconnect-events", []string{"audit.*"}, logger.NewTestLogger())
	require.NoError(t, err)
	require.NotNil(t, js.createdCfg)
	assert.Equal(t, "visionconnect-events", js.createdCfg.Name)
	assert.Equal(t, []string{"audit.*", "devices.>"}, js.createdCfg.Subjects)
}

func TestEnsureStreamExisting(t *testing.T) {
	js := &fakeJetStream{}

	require.NoError(t, ensureStream(context.Background(), js, "s", nil, logger.NewTestLogger()))
	assert.Nil(t, js.createdCfg)
}

func TestEnsureStreamLookupFailure(t *testing.T) {
	js := &fakeJetStream{streamErr: errTestFixture}

	err := ensureStream(context.Background(), js, "s", nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errTestFixture)
	assert.Nil(t, js.createdCfg)
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{"adds subject when list empty", nil, "devices.>", []string{"devices.>"}},
		{"keeps list when greater wildcard matches", []string{">"}, "devices.activated", []string{">"}},
		{"keeps list when identical", []string{"devices.>"}, "devices.>", []string{"devices.>"}},
		{"appends when unmatched", []string{"logs.syslog.*"}, "devices.>", []string{"logs.syslog.*", "devices.>"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "devices.activated", "devices.activated", true},
		{"single wildcard", "devices.*", "devices.provisioned", true},
		{"greater wildcard", "devices.>", "devices.activated", true},
		{"no match length", "devices.*", "devices.a.b", false},
		{"no match tokens", "logs.syslog.*", "devices.activated", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, isStreamMissingErr(tc.err))
		})
	}
}

func TestConnectRequiresConfig(t *testing.T) {
	_, _, err := Connect(context.Background(), nil, nil)
	require.ErrorIs(t, err, errNATSConfigMissing)
}

func TestTLSConfigRequiresAllFiles(t *testing.T) {
	_, err := TLSConfig(&models.TLSConfig{CertFile: "a.pem"}, "", "")
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = connectOptions(&models.NATSConfig{TLS: &models.TLSConfig{}}, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrMTLSRequired)
}

func TestServerNameFromURL(t *testing.T) {
	assert.Equal(t, "nats.example.com", serverNameFromURL("tls://nats.example.com:4222"))
}

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestConnectPublishesToJetStream(t *testing.T) {
	srv := runJetStreamServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pub, nc, err := Connect(ctx, &models.NATSConfig{
		Enabled:  true,
		URL:      srv.ClientURL(),
		Stream:   "visionconnect-events",
		Subjects: []string{"audit.>"},
	}, logger.NewTestLogger())
	require.NoError(t, err)

	defer nc.Close()

	provisioned := &models.DeviceLifecycleEventData{
		DeviceID:    "dev-1",
		OwnerID:     "user-1",
		CameraModel: "GENERIC_ONVIF",
		Status:      models.DeviceStatusPending,
	}
	activated := &models.DeviceLifecycleEventData{
		DeviceID:    "dev-1",
		OwnerID:     "user-1",
		DeviceUID:   "CAM-1",
		CameraModel: "GENERIC_ONVIF",
		Status:      models.DeviceStatusActive,
	}

	require.NoError(t, pub.PublishDeviceEvent(ctx, models.DeviceEventProvisioned, provisioned))
	require.NoError(t, pub.PublishDeviceEvent(ctx, models.DeviceEventActivated, activated))
	// redelivery of the same transition is dropped by the stream
	require.NoError(t, pub.PublishDeviceEvent(ctx, models.DeviceEventActivated, activated))

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "visionconnect-events")
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit.>", "devices.>"}, info.Config.Subjects)
	assert.Equal(t, uint64(2), info.State.Msgs)

	ack, err := js.Publish(ctx, "devices.activated", []byte("{}"),
		jetstream.WithMsgID(EventID(models.DeviceEventActivated, "dev-1")))
	require.NoError(t, err)
	assert.True(t, ack.Duplicate)

	cons, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{"devices.>"},
	})
	require.NoError(t, err)

	batch, err := cons.Fetch(2, jetstream.FetchMaxWait(5*time.Second))
	require.NoError(t, err)

	var msgs []jetstream.Msg
	for msg := range batch.Messages() {
		msgs = append(msgs, msg)
	}

	require.NoError(t, batch.Error())
	require.Len(t, msgs, 2)

	want := []models.DeviceEventType{models.DeviceEventProvisioned, models.DeviceEventActivated}
	for i, msg := range msgs {
		assert.Equal(t, SubjectFor(want[i]), msg.Subject())
		assert.Equal(t, EventID(want[i], "dev-1"), msg.Headers().Get(nats.MsgIdHdr))

		var event models.CloudEvent
		require.NoError(t, json.Unmarshal(msg.Data(), &event))
		assert.Equal(t, eventTypeBase+string(want[i]), event.Type)
		assert.Equal(t, eventSource, event.Source)
		assert.Equal(t, msg.Headers().Get(nats.MsgIdHdr), event.ID)
	}
}

func TestConnectReusesExistingStream(t *testing.T) {
	srv := runJetStreamServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	defer nc.Close()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     "events",
		Subjects: []string{"devices.*"},
	})
	require.NoError(t, err)

	pub, pubConn, err := Connect(ctx, &models.NATSConfig{
		Enabled: true,
		URL:     srv.ClientURL(),
		Stream:  "events",
	}, logger.NewTestLogger())
	require.NoError(t, err)

	defer pubConn.Close()

	require.NoError(t, pub.PublishDeviceEvent(ctx, models.DeviceEventProvisioned, &models.DeviceLifecycleEventData{
		DeviceID: "dev-9",
		Status:   models.DeviceStatusPending,
	}))

	stream, err := js.Stream(ctx, "events")
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"devices.*"}, info.Config.Subjects)
	assert.Equal(t, uint64(1), info.State.Msgs)
}
