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

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carverauto/visionconnect/pkg/models"
)

const insertUserSQL = `
INSERT INTO users (id, email, password_hash, created_at)
VALUES ($1, $2, $3, $4)`

const selectUserByEmailSQL = `
SELECT id, email, password_hash, created_at
FROM users
WHERE email = $1`

const selectUserByIDSQL = `
SELECT id, email, password_hash, created_at
FROM users
WHERE id = $1`

func (s *CNPGStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrUserNil
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("%w: user id: %w", ErrFailedToInsert, err)
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.pool.Exec(ctx, insertUserSQL, id, strings.ToLower(user.Email), user.PasswordHash, createdAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrUserExists
		}

		return fmt.Errorf("%w: user: %w", ErrFailedToInsert, err)
	}

	return nil
}

func (s *CNPGStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, selectUserByEmailSQL, strings.ToLower(email)))
}

func (s *CNPGStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return scanUser(s.pool.QueryRow(ctx, selectUserByIDSQL, uid))
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		id   uuid.UUID
		user models.User
	)

	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: user: %w", ErrFailedToScan, err)
	}

	user.ID = id.String()

	return &user, nil
}
