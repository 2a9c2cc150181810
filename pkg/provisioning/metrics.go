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

package provisioning

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/visionconnect/pkg/models"
)

const (
	meterName = "visionconnect.provisioning"

	metricOperationsTotal = "visionconnect_provisioning_operations_total"
	metricEventFailures   = "visionconnect_provisioning_event_failures_total"

	opInitiate = "initiate"
	opActivate = "activate"
	opStatus   = "status"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	opCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	eventFailureCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	ops, err := meter.Int64Counter(
		metricOperationsTotal,
		metric.WithDescription("Provisioning operations by name and result"),
	)
	if err != nil {
		otel.Handle(err)
	}
	opCounter = ops

	failures, err := meter.Int64Counter(
		metricEventFailures,
		metric.WithDescription("Lifecycle events that could not be published"),
	)
	if err != nil {
		otel.Handle(err)
	}
	eventFailureCounter = failures
}

func recordOperation(ctx context.Context, op string, err error) {
	meterOnce.Do(initMeter)
	if opCounter == nil {
		return
	}

	opCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", resultLabel(err)),
	))
}

func recordEventFailure(ctx context.Context, eventType models.DeviceEventType) {
	meterOnce.Do(initMeter)
	if eventFailureCounter == nil {
		return
	}

	eventFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", string(eventType))))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrDeviceNotFound):
		return "not_found"
	case errors.Is(err, models.ErrDeviceTokenConflict):
		return "conflict"
	default:
		return "error"
	}
}
