package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/logger"
)

const HeaderRequestID = "X-Request-ID"

// AppError carries the HTTP status a handler error should be reported with.
type AppError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Cause: cause}
}

// accessLog assigns a request id, stores it in the request context and logs
// one line per request.
func accessLog(log *zap.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)
		c.SetContext(logger.WithRequestID(c.Context(), rid))

		err := c.Next()

		log.Info("http access",
			zap.String(logger.FieldRequestID, rid),
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		)

		return err
	}
}

// recoverErrors turns panics and handler errors into JSON error replies.
func recoverErrors(log *zap.Logger) fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String(logger.FieldRequestID, logger.RequestID(c.Context())),
					zap.String("panic", fmt.Sprint(r)),
				)
				err = failure(c, fiber.StatusInternalServerError, MessageInternalServerError)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, message := normalizeError(err)
		fields := []zap.Field{
			zap.String(logger.FieldRequestID, logger.RequestID(c.Context())),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}

		return failure(c, status, message)
	}
}

func normalizeError(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status == fiber.StatusInternalServerError {
			return fiber.StatusInternalServerError, MessageInternalServerError
		}
		return status, appErr.Message
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, MessageInternalServerError
		}
		return status, fiberErr.Message
	}

	return fiber.StatusInternalServerError, MessageInternalServerError
}
