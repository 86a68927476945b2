package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func limited(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimiter_Burst(t *testing.T) {
	h := limited(NewRateLimiter(0.001, 3))
	for i := 0; i < 3; i++ {
		if code := hit(h, "1.2.3.4:1234", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := hit(h, "1.2.3.4:9999", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the same host on another port, got %d", code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	h := limited(NewRateLimiter(0.001, 1))
	if code := hit(h, "1.2.3.4:1", ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := hit(h, "5.6.7.8:1", ""); code != http.StatusOK {
		t.Fatalf("expected 200 for a different client, got %d", code)
	}
	if code := hit(h, "10.0.0.1:1", "9.9.9.9, 10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected 200 for a forwarded client, got %d", code)
	}
	if code := hit(h, "10.0.0.2:1", "9.9.9.9"); code != http.StatusTooManyRequests {
		t.Fatalf("expected forwarded client to share its bucket, got %d", code)
	}
}
