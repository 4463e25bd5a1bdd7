package httpcontroller

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/oceanecho/oceanecho/internal/logger"
)

// CSRFContextKey is the key used to store the CSRF token in the context.
const CSRFContextKey = "oceanecho-csrf"

// DefaultMaxUploadSize applies when webserver.maxuploadsize is empty.
const DefaultMaxUploadSize = "64M"

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String()[:8] },
	}))
	s.Echo.Use(s.requestLogger())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	limit := s.Settings.WebServer.MaxUploadSize
	if limit == "" {
		limit = DefaultMaxUploadSize
	}
	s.Echo.Use(middleware.BodyLimit(limit))
	s.Echo.Use(s.CSRFMiddleware())
}

// CSRFMiddleware protects the HTML form. The JSON API, media and metrics
// routes are exempt.
func (s *Server) CSRFMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   1800,
		TokenLength:    32,
		ContextKey:     CSRFContextKey,
		Skipper: func(c echo.Context) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/media/") ||
				path == "/metrics"
		},
		ErrorHandler: func(err error, c echo.Context) error {
			s.log.Warn("CSRF token validation failed",
				logger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				logger.String("path", c.Request().URL.Path),
				logger.Error(err))
			return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
		},
	})
}

// rateLimiter limits predict requests per client IP, or returns nil when
// webserver.ratelimit is zero.
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	ws := s.Settings.WebServer
	if ws.RateLimit <= 0 {
		return nil
	}
	burst := ws.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(ws.RateLimit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.httpMetrics().RateLimited()
			s.log.Info("predict request rate limited", logger.String("client_ip", identifier))
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many predict requests, try again shortly")
		},
	})
}

// requestLogger logs each request and records HTTP metrics.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.httpMetrics().RecordRequest(route, v.Method, v.Status, v.Latency)

			fields := []logger.Field{
				logger.String("request_id", v.RequestID),
				logger.String("remote_ip", v.RemoteIP),
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			switch {
			case v.Status >= 500:
				s.log.Error("http request", fields...)
			case v.Status >= 400:
				s.log.Warn("http request", fields...)
			default:
				s.log.Debug("http request", fields...)
			}
			return nil
		},
	})
}
