// file: internal/aegmiddleware/limiter_test.go

package aegmiddleware_test

import (
	"RangeGate/internal/aegmiddleware"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ============================================================================
//  测试辅助函数 (Test Helpers)
// ============================================================================

var testHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
})

// ============================================================================
//  测试用例 (Test Cases)
// ============================================================================

func TestBusinessRateLimiter_Global(t *testing.T) {
	limiter := aegmiddleware.NewBusinessRateLimiter(aegmiddleware.LimitSettings{
		GlobalRate: 2, GlobalBurst: 2, IPRate: 100, IPBurst: 100,
	})
	t.Cleanup(limiter.Close)
	middleware := limiter.Global(testHandler)

	t.Run("should allow initial requests", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("POST", "/", nil)
			rr := httptest.NewRecorder()
			middleware.ServeHTTP(rr, req)
			if status := rr.Code; status != http.StatusOK {
				t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
			}
		}
	})

	t.Run("should block subsequent requests", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		rr := httptest.NewRecorder()
		middleware.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusTooManyRequests {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusTooManyRequests)
		}
	})

	t.Run("should allow requests again after delay", func(t *testing.T) {
		time.Sleep(1 * time.Second)
		req := httptest.NewRequest("POST", "/", nil)
		rr := httptest.NewRecorder()
		middleware.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code after delay: got %v want %v", status, http.StatusOK)
		}
	})
}

func TestBusinessRateLimiter_PerIP(t *testing.T) {
	limiter := aegmiddleware.NewBusinessRateLimiter(aegmiddleware.LimitSettings{
		GlobalRate: 100, GlobalBurst: 100, IPRate: 0.01, IPBurst: 1,
	})
	t.Cleanup(limiter.Close)
	middleware := limiter.Chain(testHandler)

	t.Run("should limit requests from the same IP", func(t *testing.T) {
		req1 := httptest.NewRequest("POST", "/", nil)
		req1.RemoteAddr = "192.0.2.1:12345"
		rr1 := httptest.NewRecorder()
		middleware.ServeHTTP(rr1, req1)
		if rr1.Code != http.StatusOK {
			t.Fatal("First request from IP 1 should be allowed")
		}

		req2 := httptest.NewRequest("POST", "/", nil)
		req2.RemoteAddr = "192.0.2.1:12345"
		rr2 := httptest.NewRecorder()
		middleware.ServeHTTP(rr2, req2)
		if rr2.Code != http.StatusTooManyRequests {
			t.Errorf("Second request from IP 1 should be blocked, got %d", rr2.Code)
		}
	})

	t.Run("should not affect requests from a different IP", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.RemoteAddr = "192.0.2.2:54321"
		rr := httptest.NewRecorder()
		middleware.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Request from IP 2 should be allowed, but got %v", status)
		}
	})

	t.Run("should ignore client supplied forwarding headers", func(t *testing.T) {
		for _, spoofed := range []string{"198.51.100.7", "198.51.100.8"} {
			req := httptest.NewRequest("POST", "/", nil)
			req.RemoteAddr = "192.0.2.1:12345"
			req.Header.Set("X-Forwarded-For", spoofed)
			req.Header.Set("X-Real-IP", spoofed)
			rr := httptest.NewRecorder()
			middleware.ServeHTTP(rr, req)
			if rr.Code != http.StatusTooManyRequests {
				t.Errorf("forged header %s must not get a fresh bucket, got %d", spoofed, rr.Code)
			}
		}
	})

	t.Run("should use the address resolved by the router", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.RemoteAddr = "192.0.2.1:12345"
		req = req.WithContext(aegmiddleware.WithClientIP(req.Context(), "198.51.100.9"))
		rr := httptest.NewRecorder()
		middleware.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("resolved client should have its own bucket, got %d", rr.Code)
		}
	})
}
