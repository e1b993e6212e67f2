package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"libradesk/internal/config"
	"libradesk/internal/pkg/jwt"
	"libradesk/internal/pkg/microcache"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: "secret", AccessTokenMins: 5}}
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(7, "ada", role, "secret", 5)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, app *fiber.App, method, target, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/me", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.SendString(string(CurrentRole(c)) + ":" + c.Locals(LocalUsername).(string))
	})

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/me", "").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/me", "garbage").StatusCode)

	resp := do(t, app, "GET", "/me", token(t, "MEMBER"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "MEMBER:ada", string(body))
}

func TestStaffOnly(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/desk", AuthMiddleware(cfg), StaffOnly(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admin", AuthMiddleware(cfg), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	assert.Equal(t, fiber.StatusForbidden, do(t, app, "GET", "/desk", token(t, "MEMBER")).StatusCode)
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/desk", token(t, "LIBRARIAN")).StatusCode)
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/desk", token(t, "ADMIN")).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "GET", "/admin", token(t, "LIBRARIAN")).StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalAuth(testConfig()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": CurrentUserID(c)})
	})

	body, _ := io.ReadAll(do(t, app, "GET", "/", "").Body)
	assert.JSONEq(t, `{"id":0}`, string(body))

	body, _ = io.ReadAll(do(t, app, "GET", "/", token(t, "MEMBER")).Body)
	assert.JSONEq(t, `{"id":7}`, string(body))
}

func TestReportCache(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	store := microcache.New("reports",
		microcache.WithTTL(15*time.Second),
		microcache.WithClock(microcache.ClockFunc(func() time.Time { return now })),
	)

	var hits int32
	app := fiber.New()
	app.Get("/reports/fines", ReportCache(store), func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&hits, 1)
		return c.JSON(fiber.Map{"computed": n})
	})
	app.Post("/loans", InvalidateOn(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/loans/fail", InvalidateOn(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusConflict)
	})

	first := do(t, app, "GET", "/reports/fines?days=30", "")
	assert.Equal(t, "miss", first.Header.Get("X-Cache"))
	second := do(t, app, "GET", "/reports/fines?days=30", "")
	assert.Equal(t, "hit", second.Header.Get("X-Cache"))
	body, _ := io.ReadAll(second.Body)
	assert.JSONEq(t, `{"computed":1}`, string(body))

	other := do(t, app, "GET", "/reports/fines?days=7", "")
	assert.Equal(t, "miss", other.Header.Get("X-Cache"), "query string is part of the key")

	do(t, app, "POST", "/loans/fail", "")
	assert.Equal(t, "hit", do(t, app, "GET", "/reports/fines?days=30", "").Header.Get("X-Cache"))
	assert.Zero(t, store.Purges())

	do(t, app, "POST", "/loans", "")
	assert.EqualValues(t, 1, store.Purges())
	assert.Equal(t, "miss", do(t, app, "GET", "/reports/fines?days=30", "").Header.Get("X-Cache"))

	now = now.Add(16 * time.Second)
	assert.Equal(t, "miss", do(t, app, "GET", "/reports/fines?days=30", "").Header.Get("X-Cache"))
	assert.EqualValues(t, 4, atomic.LoadInt32(&hits))
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/", NoCacheHeaders(), func(c *fiber.Ctx) error { return c.SendString("x") })

	resp := do(t, app, "GET", "/", "")
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
}
