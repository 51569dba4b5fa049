package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"pimms/internal/platform/config"
	"pimms/internal/platform/net/middleware"
)

// CommonStack is the middleware every /api/v1 route runs through
// cfg is the CORE_API_ view, CORS_ORIGINS SLOW_REQUEST and REQUEST_TIMEOUT tune it
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", time.Second),
			Skip: []string{"/api/v1/meta/health"},
		}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil)}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second)),
	}
}
