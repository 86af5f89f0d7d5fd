package di

import (
	"SignalDesk/internal/handler/api"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/pkg/http/middleware"

	"github.com/labstack/echo/v4"
)

// routeSet registers every handler group on one Echo instance.
type routeSet struct {
	signals  *api.SignalHandler
	telegram *api.TelegramHandler
}

func (r *routeSet) RegisterRoutes(e *echo.Echo) {
	limiter := ratelimit.New(20, 10)
	e.Use(middleware.RateLimit(limiter.Allow))

	r.signals.RegisterRoutes(e)
	r.telegram.RegisterRoutes(e)
}
