package gateway

import (
	"context"
	"net/http"

	"github.com/cruxauth/authsvc/metrics"
)

// Validator performs the validate-token RPC against the Identity Service.
// Implemented by IdentityClient in production; a direct in-process
// identity.Service can also satisfy it for tests.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (isValid bool, isVerified bool, message string, err error)
}

// AdmissionGuard admits a request when its bearer token resolves to a
// valid identity, or else charges it against the anonymous rate-limit
// budget keyed by source address.
type AdmissionGuard struct {
	validator Validator
	limiter   *RateLimiter
	metrics   *metrics.Metrics
}

func NewAdmissionGuard(validator Validator, limiter *RateLimiter) *AdmissionGuard {
	return &AdmissionGuard{validator: validator, limiter: limiter}
}

// WithMetrics attaches a Metrics sink, returning g for chaining. A nil
// Metrics (the zero value) disables recording, matching every other use
// of metrics.Metrics in this module.
func (g *AdmissionGuard) WithMetrics(m *metrics.Metrics) *AdmissionGuard {
	g.metrics = m
	return g
}

// Allow returns nil when the request may proceed, or the error to surface.
// A token that fails validation (or whose validation call errors) is
// treated as anonymous and charged against the budget; ErrTooManyRequests
// maps to 429.
func (g *AdmissionGuard) Allow(ctx context.Context, r *http.Request) error {
	if token := r.Header.Get("token"); token != "" {
		isValid, _, _, err := g.validator.ValidateToken(ctx, token)
		if err == nil && isValid {
			return nil
		}
	}

	if g.limiter.Consume(ctx, sourceAddress(r)) {
		return nil
	}
	g.metrics.Inc(metrics.MetricRateLimitHit)
	return ErrTooManyRequests
}

// sourceAddress extracts the opaque caller address the rate limiter keys
// on. r.RemoteAddr is authoritative here since the gateway terminates
// client connections directly; a reverse proxy deployment would instead
// trust a configured forwarded-for header, which is left to operators.
func sourceAddress(r *http.Request) string {
	return r.RemoteAddr
}
