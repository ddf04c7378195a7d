package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type memoryAttemptStore struct {
	attempts map[string][]time.Time
	err      error
}

func newMemoryAttemptStore() *memoryAttemptStore {
	return &memoryAttemptStore{attempts: map[string][]time.Time{}}
}

func (s *memoryAttemptStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *memoryAttemptStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	var count int
	for _, at := range s.attempts[identifier] {
		if !at.Before(reference.Add(-window)) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

func (s *memoryAttemptStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if s.err != nil {
		return s.err
	}
	threshold := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if !at.Before(threshold) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *memoryAttemptStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if s.err != nil {
		return time.Time{}, false, s.err
	}
	var oldest time.Time
	var found bool
	for _, at := range s.attempts[identifier] {
		if at.Before(reference.Add(-window)) || at.After(reference) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

func newLimitedRouter(limiter *RateLimiter, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", limiter.RateLimit(RateLimitRule{
		Name:       "login",
		Limit:      limit,
		Window:     window,
		Identifier: ClientIPIdentifier(),
	}), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BlocksPastLimit(t *testing.T) {
	store := newMemoryAttemptStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	limiter := NewRateLimiter(store, nil).WithClock(func() time.Time { return current })
	router := newLimitedRouter(limiter, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if rec := hit(router, "1.2.3.4"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
		current = current.Add(time.Second)
	}

	rec := hit(router, "1.2.3.4")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}

	// Another caller is unaffected.
	if rec := hit(router, "5.6.7.8"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a fresh caller, got %d", rec.Code)
	}
}

func TestRateLimit_WindowSlides(t *testing.T) {
	store := newMemoryAttemptStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	limiter := NewRateLimiter(store, nil).WithClock(func() time.Time { return current })
	router := newLimitedRouter(limiter, 2, time.Minute)

	hit(router, "1.2.3.4")
	hit(router, "1.2.3.4")
	if rec := hit(router, "1.2.3.4"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	current = base.Add(2 * time.Minute)
	if rec := hit(router, "1.2.3.4"); rec.Code != http.StatusOK {
		t.Fatalf("expected the window to slide open, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpenOnStoreErrors(t *testing.T) {
	store := newMemoryAttemptStore()
	store.err = context.DeadlineExceeded
	limiter := NewRateLimiter(store, nil)
	router := newLimitedRouter(limiter, 1, time.Minute)

	for i := 0; i < 5; i++ {
		if rec := hit(router, "1.2.3.4"); rec.Code != http.StatusOK {
			t.Fatalf("expected requests through an unreachable store, got %d", rec.Code)
		}
	}
}

func TestRateLimit_DisabledRulePassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	router := newLimitedRouter(limiter, 0, 0)

	if rec := hit(router, "1.2.3.4"); rec.Code != http.StatusOK {
		t.Fatalf("expected a disabled rule to pass through, got %d", rec.Code)
	}
}
