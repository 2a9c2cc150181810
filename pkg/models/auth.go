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

import "time"

// User is an account that owns camera devices.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is returned by a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthConfig controls account handling and JWT issuance.
type AuthConfig struct {
	JWTSecret     string   `json:"jwt_secret" sensitive:"true"`
	JWTExpiration Duration `json:"jwt_expiration"`
	RequireAuth   bool     `json:"require_auth"`
	BcryptCost    int      `json:"bcrypt_cost,omitempty"`
}

// Enabled reports whether bearer tokens can be verified.
func (c *AuthConfig) Enabled() bool {
	return c != nil && c.JWTSecret != ""
}
