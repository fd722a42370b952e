package auth

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	flowPassword  = "password"
	flowFederated = "federated"
	flowRedirect  = "redirect"
	flowRegister  = "register"
)

var (
	attemptCounter metric.Int64Counter
	failureCounter metric.Int64Counter

	metersOnce sync.Once
)

// initMeters creates the login counters. With no meter provider installed
// the instruments are no-ops, so errors only get logged by the otel
// error handler.
func initMeters() {
	metersOnce.Do(func() {
		meter := otel.Meter(
			"storefront-auth/auth",
			metric.WithInstrumentationVersion(otel.Version()),
		)

		var err error

		attemptCounter, err = meter.Int64Counter(
			"auth.login_attempts",
			metric.WithDescription("Authentication attempts by flow"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			otel.Handle(err)
		}

		failureCounter, err = meter.Int64Counter(
			"auth.login_failures",
			metric.WithDescription("Failed authentication attempts by flow"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func (m *Manager) recordAttempt(ctx context.Context, flow string) {
	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
	}
}

func (m *Manager) recordFailure(ctx context.Context, flow string) {
	if failureCounter != nil {
		failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
	}
}
