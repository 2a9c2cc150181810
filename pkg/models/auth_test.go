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
	"strings"
	"testing"
	"time"
)

func TestAuthConfigMarshalJSONFormatsDuration(t *testing.T) {
	cfg := &AuthConfig{
		JWTExpiration: Duration(2 * time.Hour),
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal auth config: %v", err)
	}

	if want := `"jwt_expiration":"2h0m0s"`; !strings.Contains(string(data), want) {
		t.Fatalf("expected JSON to contain %s, got %s", want, string(data))
	}
}

func TestAuthConfigUnmarshalJSONAcceptsDurationString(t *testing.T) {
	var cfg AuthConfig
	payload := `{"jwt_expiration":"90s"}`

	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		t.Fatalf("unmarshal auth config: %v", err)
	}

	if time.Duration(cfg.JWTExpiration) != 90*time.Second {
		t.Fatalf("expected 90s duration, got %v", time.Duration(cfg.JWTExpiration))
	}
}

func TestAuthConfigUnmarshalJSONAcceptsDurationNumber(t *testing.T) {
	var cfg AuthConfig
	payload := `{"jwt_expiration": 5000000000}`

	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		t.Fatalf("unmarshal auth config: %v", err)
	}

	if time.Duration(cfg.JWTExpiration) != 5*time.Second {
		t.Fatalf("expected 5s duration, got %v", time.Duration(cfg.JWTExpiration))
	}
}

func TestAuthConfigUnmarshalJSONRejectsGarbage(t *testing.T) {
	var cfg AuthConfig

	if err := json.Unmarshal([]byte(`{"jwt_expiration":"soon"}`), &cfg); err == nil {
		t.Fatal("expected an error for an unparsable duration")
	}

	if err := json.Unmarshal([]byte(`{"jwt_expiration":true}`), &cfg); err == nil {
		t.Fatal("expected an error for a boolean duration")
	}
}

func TestAuthConfigEnabled(t *testing.T) {
	var nilCfg *AuthConfig
	if nilCfg.Enabled() {
		t.Fatal("nil config must not be enabled")
	}

	if (&AuthConfig{}).Enabled() {
		t.Fatal("config without a secret must not be enabled")
	}

	if !(&AuthConfig{JWTSecret: "s"}).Enabled() {
		t.Fatal("config with a secret must be enabled")
	}
}

func TestUserNeverSerializesPasswordHash(t *testing.T) {
	data, err := json.Marshal(User{ID: "u-1", Email: "a@example.com", PasswordHash: "$2a$10$abc"})
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	if strings.Contains(string(data), "$2a$10$abc") {
		t.Fatalf("password hash leaked: %s", data)
	}
}
