package middleware

import (
	"strconv"
	"time"

	"libradesk/internal/pkg/microcache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/rs/zerolog/log"
)

// ReportCache serves repeated report requests from the microcache.
// Entries are keyed by method and full URL, so query parameters are part of the key.
func ReportCache(store *microcache.Store) fiber.Handler {
	return cache.New(cache.Config{
		Expiration:   store.TTL(),
		CacheHeader:  "X-Cache",
		Storage:      store,
		KeyGenerator: cacheKey,
	})
}

func cacheKey(c *fiber.Ctx) string {
	return c.Method() + " " + c.OriginalURL()
}

// InvalidateOn purges the store after any successful mutating request
// that passes through it
func InvalidateOn(store *microcache.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return err
		}
		if err == nil && c.Response().StatusCode() < fiber.StatusBadRequest {
			_ = store.Reset()
			log.Debug().Str("cache", store.Name()).Str("path", c.Path()).Msg("🧽 Response cache purged")
		}
		return err
	}
}

// NoCacheHeaders sets no-cache headers
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}

// PrivateCacheHeaders lets the browser keep user-specific GET responses for maxAge
func PrivateCacheHeaders(maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, "private, max-age="+strconv.Itoa(int(maxAge.Seconds())))
		}
		return err
	}
}
