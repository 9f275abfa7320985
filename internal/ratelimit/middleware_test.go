package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore implements Store with a canned response.
type stubStore struct {
	count int64
	err   error
	keys  []string
}

func (s *stubStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return 0, s.err
	}
	s.count++
	return s.count, s.err
}

func setupLimitedApp(store Store, limit int64) *fiber.App {
	app := fiber.New()
	app.Post("/api/grants/redeem", Middleware(store, limit, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestMiddleware_AllowsUnderLimit(t *testing.T) {
	app := setupLimitedApp(&stubStore{}, 3)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/grants/redeem", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	app := setupLimitedApp(&stubStore{}, 2)

	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/grants/redeem", nil))
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}

func TestMiddleware_FailsOpenOnStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	app := setupLimitedApp(store, 1)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/grants/redeem", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestMiddleware_KeysByRoute(t *testing.T) {
	store := &stubStore{}
	app := setupLimitedApp(store, 10)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/grants/redeem", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, store.keys, 1)
	assert.Contains(t, store.keys[0], "/api/grants/redeem")
}
