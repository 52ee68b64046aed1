package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"roomy-listing/pkg/logger"
)

// accessLog writes one structured line per request. Query strings are left
// out because listing URLs in them carry booking details.
func accessLog(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := log.WithFields(map[string]interface{}{
			"request_id":  c.GetRespHeader(fiber.HeaderXRequestID),
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("HTTP request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
		return err
	}
}
