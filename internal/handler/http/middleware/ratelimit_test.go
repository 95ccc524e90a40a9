package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockIPExtractor struct {
	ip  string
	err error
}

func (m *mockIPExtractor) ExtractIP(r *http.Request) (string, error) {
	return m.ip, m.err
}

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	extractor := &mockIPExtractor{ip: "192.168.1.1"}
	limiter := NewRateLimiter(3, time.Minute, extractor)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/trigger", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: expected status %d, got %d", i+1, http.StatusOK, rec.Code)
		}
	}
}

func TestRateLimiter_BlockExceedingLimit(t *testing.T) {
	extractor := &mockIPExtractor{ip: "192.168.1.1"}
	limiter := NewRateLimiter(3, time.Minute, extractor)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/trigger", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d should succeed, got status %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("GET", "/trigger", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("4th request: expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, nil)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ips := []string{"192.168.1.1", "192.168.1.2"}
	for _, ip := range ips {
		limiter.ipExtractor = &mockIPExtractor{ip: ip}
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/trigger", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("ip %s request %d: expected status %d, got %d", ip, i+1, http.StatusOK, rec.Code)
			}
		}
	}

	for _, ip := range ips {
		limiter.ipExtractor = &mockIPExtractor{ip: ip}
		req := httptest.NewRequest("GET", "/trigger", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("ip %s 3rd request: expected status %d, got %d", ip, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestRateLimiter_WindowSliding(t *testing.T) {
	extractor := &mockIPExtractor{ip: "192.168.1.1"}
	limiter := NewRateLimiter(2, 100*time.Millisecond, extractor)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/trigger", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d should succeed", i+1)
		}
	}

	req := httptest.NewRequest("GET", "/trigger", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Error("3rd request should be rate limited")
	}

	time.Sleep(150 * time.Millisecond)

	req = httptest.NewRequest("GET", "/trigger", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("request after window expiry: expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	extractor := &mockIPExtractor{ip: "192.168.1.1"}
	limiter := NewRateLimiter(5, 50*time.Millisecond, extractor)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/trigger", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	limiter.mu.Lock()
	if _, exists := limiter.requests["192.168.1.1"]; !exists {
		limiter.mu.Unlock()
		t.Fatal("expected IP to be in requests map")
	}
	limiter.mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	limiter.CleanupExpired()

	limiter.mu.Lock()
	if _, exists := limiter.requests["192.168.1.1"]; exists {
		t.Error("expected IP to be removed after cleanup")
	}
	limiter.mu.Unlock()
}

func TestRateLimiter_IPExtractorErrorFallsBackToRemoteAddr(t *testing.T) {
	extractor := &mockIPExtractor{ip: "", err: fmt.Errorf("extraction failed")}
	limiter := NewRateLimiter(5, time.Minute, extractor)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/trigger", nil)
	req.RemoteAddr = "192.168.1.1:8080"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected fallback to RemoteAddr to succeed, got status %d", rec.Code)
	}
}
