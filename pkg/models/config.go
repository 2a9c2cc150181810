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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/visionconnect/pkg/logger"
)

var (
	errInvalidDuration     = errors.New("invalid duration")
	errListenAddrRequired  = errors.New("listen_addr is required")
	errPublicURLInvalid    = errors.New("public_url must be an absolute http(s) URL")
	errUnknownStoreDriver  = errors.New("unknown database driver")
	errCNPGConfigRequired  = errors.New("database.cnpg is required for the postgres driver")
	errSQLitePathRequired  = errors.New("database.sqlite_path is required for the sqlite driver")
	errNATSURLRequired     = errors.New("nats.url is required when nats is enabled")
	errRequireAuthNoSecret = errors.New("auth.require_auth needs auth.jwt_secret")
)

// Duration wraps time.Duration so config files can use "10s" style values.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// StoreDriver selects the persistence backend for device and user records.
type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverSQLite   StoreDriver = "sqlite"
)

// Config is the top level configuration for the visionconnect service.
type Config struct {
	ListenAddr string          `json:"listen_addr"`
	PublicURL  string          `json:"public_url"`
	Logging    *logger.Config  `json:"logging"`
	Database   DatabaseConfig  `json:"database"`
	Auth       *AuthConfig     `json:"auth"`
	NATS       *NATSConfig     `json:"nats,omitempty"`
	Signaling  SignalingConfig `json:"signaling"`
	QR         QRConfig        `json:"qr"`
	CORS       CORSConfig      `json:"cors"`
}

// DatabaseConfig selects and configures the record store.
type DatabaseConfig struct {
	Driver     StoreDriver   `json:"driver"`
	CNPG       *CNPGDatabase `json:"cnpg,omitempty"`
	SQLitePath string        `json:"sqlite_path,omitempty"`
}

// CNPGDatabase describes a PostgreSQL (CloudNativePG) connection.
type CNPGDatabase struct {
	Host               string            `json:"host"`
	Port               int               `json:"port"`
	Database           string            `json:"database"`
	Username           string            `json:"username"`
	Password           string            `json:"password" sensitive:"true"`
	SSLMode            string            `json:"ssl_mode"`
	ApplicationName    string            `json:"application_name"`
	MaxConnections     int32             `json:"max_connections"`
	MinConnections     int32             `json:"min_connections"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime"`
	HealthCheckPeriod  Duration          `json:"health_check_period"`
	StatementTimeout   Duration          `json:"statement_timeout"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`
	CertDir            string            `json:"cert_dir,omitempty"`
	TLS                *TLSConfig        `json:"tls,omitempty"`
}

// TLSConfig names client certificate material for mTLS connections.
type TLSConfig struct {
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file"`
}

// NATSConfig enables publishing device lifecycle events to JetStream.
type NATSConfig struct {
	Enabled   bool       `json:"enabled"`
	URL       string     `json:"url"`
	Domain    string     `json:"domain,omitempty"`
	Stream    string     `json:"stream"`
	Subjects  []string   `json:"subjects,omitempty"`
	CredsFile string     `json:"creds_file,omitempty"`
	CertDir   string     `json:"cert_dir,omitempty"`
	TLS       *TLSConfig `json:"tls,omitempty"`
}

// SignalingConfig tunes the websocket relay.
type SignalingConfig struct {
	SendBuffer      int      `json:"send_buffer"`
	WriteTimeout    Duration `json:"write_timeout"`
	PongTimeout     Duration `json:"pong_timeout"`
	PingInterval    Duration `json:"ping_interval"`
	MaxMessageBytes int64    `json:"max_message_bytes"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty"`
	RequireUserAuth bool     `json:"require_user_auth"`
}

// QRConfig controls onboarding payload rendering.
type QRConfig struct {
	Compact bool `json:"compact"`
	Size    int  `json:"size"`
}

// CORSConfig mirrors the allowed origins for the HTTP API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

const (
	DefaultListenAddr      = ":8000"
	DefaultPublicURL       = "http://localhost:8000"
	DefaultSendBuffer      = 64
	DefaultWriteTimeout    = 10 * time.Second
	DefaultPongTimeout     = 60 * time.Second
	DefaultMaxMessageBytes = 64 * 1024
	DefaultQRSize          = 256
	DefaultJWTExpiration   = 24 * time.Hour
	DefaultNATSStream      = "visionconnect-events"
)

// ApplyDefaults fills unset fields with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	if c.PublicURL == "" {
		c.PublicURL = DefaultPublicURL
	}

	if c.Database.Driver == "" {
		c.Database.Driver = StoreDriverMemory
	}

	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}

	if c.Auth.JWTExpiration == 0 {
		c.Auth.JWTExpiration = Duration(DefaultJWTExpiration)
	}

	s := &c.Signaling
	if s.SendBuffer <= 0 {
		s.SendBuffer = DefaultSendBuffer
	}

	if s.WriteTimeout <= 0 {
		s.WriteTimeout = Duration(DefaultWriteTimeout)
	}

	if s.PongTimeout <= 0 {
		s.PongTimeout = Duration(DefaultPongTimeout)
	}

	if s.PingInterval <= 0 || s.PingInterval >= s.PongTimeout {
		s.PingInterval = Duration(time.Duration(s.PongTimeout) * 9 / 10)
	}

	if s.MaxMessageBytes <= 0 {
		s.MaxMessageBytes = DefaultMaxMessageBytes
	}

	if c.QR.Size <= 0 {
		c.QR.Size = DefaultQRSize
	}

	if c.NATS != nil && c.NATS.Stream == "" {
		c.NATS.Stream = DefaultNATSStream
	}
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	c.ApplyDefaults()

	if strings.TrimSpace(c.ListenAddr) == "" {
		return errListenAddrRequired
	}

	u, err := url.Parse(c.PublicURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errPublicURLInvalid, c.PublicURL)
	}

	switch c.Database.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Database.CNPG == nil {
			return errCNPGConfigRequired
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errSQLitePathRequired
		}
	default:
		return fmt.Errorf("%w: %s", errUnknownStoreDriver, c.Database.Driver)
	}

	if c.NATS != nil && c.NATS.Enabled && strings.TrimSpace(c.NATS.URL) == "" {
		return errNATSURLRequired
	}

	if c.Auth.RequireAuth && c.Auth.JWTSecret == "" {
		return errRequireAuthNoSecret
	}

	return nil
}
