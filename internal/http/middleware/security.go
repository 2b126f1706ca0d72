package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"studentapi/internal/config"
)

// Helmet sets the usual security headers. The CSP is relaxed for the
// swagger UI, which loads inline scripts and styles.
func Helmet() fiber.Handler {
	return helmet.New(helmet.Config{
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
		CrossOriginResourcePolicy: "cross-origin",
	})
}

// CORS allows the configured origins. With no origins configured every
// origin is allowed without credentials; credentials are only sent back to
// explicitly listed origins.
func CORS(cfg config.CORSConfig) fiber.Handler {
	c := cors.Config{
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions}, ","),
		AllowHeaders:  strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, RequestIDHeader}, ","),
		ExposeHeaders: RequestIDHeader,
		MaxAge:        int((12 * time.Hour).Seconds()),
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o != "*" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		c.AllowOrigins = "*"
	} else {
		c.AllowOrigins = strings.Join(origins, ",")
		c.AllowCredentials = true
	}
	return cors.New(c)
}

// Limiter caps requests per client IP within a fixed window. storage may be
// nil, in which case counters live in process memory.
func Limiter(cfg config.RateLimitConfig, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ratelimit:" + c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	})
}
