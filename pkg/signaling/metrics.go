package signaling

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName            = "visionconnect.signaling"
	metricForwardTotal   = "signaling_forward_total"
	metricSessionsActive = "signaling_sessions_active"
	metricInvalidTotal   = "signaling_invalid_envelope_total"
)

const (
	outcomeDelivered = "delivered"
	outcomeMissing   = "missing"
	outcomeDropped   = "dropped"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	forwardCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	sessionGauge metric.Int64UpDownCounter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	invalidCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	fwd, err := meter.Int64Counter(
		metricForwardTotal,
		metric.WithDescription("Signaling forward attempts by target role and outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	forwardCounter = fwd

	sessions, err := meter.Int64UpDownCounter(
		metricSessionsActive,
		metric.WithDescription("Registered signaling sessions by role"),
	)
	if err != nil {
		otel.Handle(err)
	}
	sessionGauge = sessions

	invalid, err := meter.Int64Counter(
		metricInvalidTotal,
		metric.WithDescription("Connections closed for an invalid envelope"),
	)
	if err != nil {
		otel.Handle(err)
	}
	invalidCounter = invalid
}

func recordForward(ctx context.Context, target Role, outcome string) {
	meterOnce.Do(initMeter)
	if forwardCounter == nil {
		return
	}

	forwardCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_role", string(target)),
		attribute.String("outcome", outcome),
	))
}

func recordSession(ctx context.Context, role Role, delta int64) {
	meterOnce.Do(initMeter)
	if sessionGauge == nil {
		return
	}

	sessionGauge.Add(ctx, delta, metric.WithAttributes(attribute.String("role", string(role))))
}

func recordInvalid(ctx context.Context) {
	meterOnce.Do(initMeter)
	if invalidCounter == nil {
		return
	}

	invalidCounter.Add(ctx, 1)
}
