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

// Package db persists camera devices and user accounts.
package db

import (
	"context"
	"fmt"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

// Open builds the Service selected by cfg.Driver.
func Open(ctx context.Context, cfg *models.DatabaseConfig, log logger.Logger) (Service, error) {
	driver := models.StoreDriverMemory
	if cfg != nil && cfg.Driver != "" {
		driver = cfg.Driver
	}

	switch driver {
	case models.StoreDriverMemory:
		if log != nil {
			log.Warn().Msg("using in-memory store; records are lost on restart")
		}

		return NewMemoryStore(), nil
	case models.StoreDriverPostgres:
		return NewCNPGStore(ctx, cfg.CNPG, log)
	case models.StoreDriverSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}
