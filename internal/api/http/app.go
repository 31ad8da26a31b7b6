package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const serviceName = "calendar-reminders"

// RequestObserver counts handled requests.
type RequestObserver interface {
	ObserveRequest(route, method, status string)
	Handler() http.Handler
}

// NewApp builds the Fiber app: centralized JSON errors, access logging,
// panic recovery, health and metrics endpoints, and the API routes.
// metrics may be nil.
func NewApp(deps Deps, metrics RequestObserver, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           timeout,
		WriteTimeout:          timeout,
		ErrorHandler:          errorHandler,
	})

	app.Use(logger.New())
	// Counting wraps recover so requests that panic are counted as 500s.
	if metrics != nil {
		app.Use(countRequests(metrics))
	}
	app.Use(recover.New())
	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	RegisterRoutes(app, deps)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func countRequests(m RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		m.ObserveRequest(c.Route().Path, c.Method(), strconv.Itoa(status))
		return err
	}
}
