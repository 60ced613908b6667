package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP_AllowsUnderLimit(t *testing.T) {
	handler := RateLimitByIP(DefaultTrackingRateLimit())(okHandler())

	for i := 0; i < 30; i++ {
		req := httptest.NewRequest("POST", "/track", nil)
		req.RemoteAddr = "203.0.113.7:4040"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := RateLimitByIP(DefaultAuthRateLimit())(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "203.0.113.8:4040"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, w.Code)
		}
	}

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "203.0.113.8:4040"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth login attempt: got status %d, want 429", w.Code)
	}

	var resp pkghttp.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("limit response is not the JSON error envelope: %v", err)
	}
	if resp.Error != "rate_limit_exceeded" {
		t.Errorf("error code: got %q, want rate_limit_exceeded", resp.Error)
	}
}

func TestRateLimitByIP_IsolatesClients(t *testing.T) {
	handler := RateLimitByIP(DefaultAuthRateLimit())(okHandler())

	// Exhaust one client's budget.
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:4040"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	// A different IP is unaffected.
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "203.0.113.10:4040"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("fresh client: got status %d, want 200", w.Code)
	}
}

func TestRateLimitByIP_SubmissionBudget(t *testing.T) {
	handler := RateLimitByIP(DefaultSubmissionRateLimit())(okHandler())

	blocked := 0
	for i := 0; i < 12; i++ {
		req := httptest.NewRequest("POST", "/complaints", nil)
		req.RemoteAddr = fmt.Sprintf("203.0.113.11:%d", 4040+i)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			blocked++
		}
	}

	// Port is not part of the key; 12 requests against a 10/min budget.
	if blocked != 2 {
		t.Errorf("blocked %d requests, want 2", blocked)
	}
}
