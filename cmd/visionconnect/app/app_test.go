package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/visionconnect/pkg/models"
)

func writeConfig(t *testing.T, cfg map[string]interface{}) string {
	t.Helper()

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "visionconnect.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	return path
}

func TestRunServesHealthAndShutsDown(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfig(t, map[string]interface{}{
		"listen_addr": "127.0.0.1:0",
		"public_url":  "http://localhost:8000",
		"logging":     map[string]interface{}{"level": "error"},
		"database":    map[string]interface{}{"driver": "memory"},
	})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, Options{ConfigPath: path, Listener: lis})
	}()

	url := "http://" + lis.Addr().String() + "/health"

	require.Eventually(t, func() bool {
		resp, getErr := http.Get(url) //nolint:noctx // test probe
		if getErr != nil {
			return false
		}

		defer func() { _ = resp.Body.Close() }()

		var health models.HealthResponse
		if json.NewDecoder(resp.Body).Decode(&health) != nil {
			return false
		}

		return resp.StatusCode == http.StatusOK && health.Status == "ok"
	}, 5*time.Second, 25*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfig(t, map[string]interface{}{
		"public_url": "not a url",
	})

	err := Run(context.Background(), Options{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
