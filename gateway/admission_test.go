package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"
)

type alwaysInvalidValidator struct{}

func (alwaysInvalidValidator) ValidateToken(context.Context, string) (bool, bool, string, error) {
	return false, false, "no token", nil
}

func TestAdmissionGuardAnonymousBudget(t *testing.T) {
	guard := NewAdmissionGuard(alwaysInvalidValidator{}, NewRateLimiter(3, time.Hour))

	req, err := http.NewRequest(http.MethodPost, "/vision/process-image", nil)
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}
	req.RemoteAddr = "203.0.113.7:51000"

	for i := 0; i < 3; i++ {
		if err := guard.Allow(context.Background(), req); err != nil {
			t.Fatalf("expected request %d to be allowed, got %v", i+1, err)
		}
	}

	if err := guard.Allow(context.Background(), req); err != ErrTooManyRequests {
		t.Fatalf("expected 4th request to be rejected with ErrTooManyRequests, got %v", err)
	}
}

func TestAdmissionGuardDistinctSourcesIndependent(t *testing.T) {
	guard := NewAdmissionGuard(alwaysInvalidValidator{}, NewRateLimiter(1, time.Hour))

	reqA, _ := http.NewRequest(http.MethodPost, "/vision/process-image", nil)
	reqA.RemoteAddr = "198.51.100.1:1"
	reqB, _ := http.NewRequest(http.MethodPost, "/vision/process-image", nil)
	reqB.RemoteAddr = "198.51.100.2:1"

	if err := guard.Allow(context.Background(), reqA); err != nil {
		t.Fatalf("expected source A's first request to be allowed, got %v", err)
	}
	if err := guard.Allow(context.Background(), reqB); err != nil {
		t.Fatalf("expected source B's first request to be allowed, got %v", err)
	}
	if err := guard.Allow(context.Background(), reqA); err != ErrTooManyRequests {
		t.Fatalf("expected source A's second request to be rejected, got %v", err)
	}
}

type validValidator struct{}

func (validValidator) ValidateToken(context.Context, string) (bool, bool, string, error) {
	return true, true, "valid", nil
}

func TestAdmissionGuardValidTokenBypassesBudget(t *testing.T) {
	guard := NewAdmissionGuard(validValidator{}, NewRateLimiter(1, time.Hour))

	req, _ := http.NewRequest(http.MethodPost, "/vision/process-image", nil)
	req.Header.Set("token", "whatever-bearer")
	req.RemoteAddr = "203.0.113.9:1"

	for i := 0; i < 5; i++ {
		if err := guard.Allow(context.Background(), req); err != nil {
			t.Fatalf("expected bearer-validated request %d to be allowed, got %v", i+1, err)
		}
	}
}
