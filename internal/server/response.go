package server

import "github.com/gofiber/fiber/v3"

// Response is the envelope of every API reply.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageNotFound            = "not found"
	MessageTooManyRequests     = "too many requests"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

func success(c fiber.Ctx, message string, data any) error {
	if message == "" {
		message = MessageOK
	}
	return c.Status(fiber.StatusOK).JSON(Response{Status: fiber.StatusOK, Message: message, Data: data})
}

func failure(c fiber.Ctx, status int, message string) error {
	if status < 100 || status > 599 {
		status = fiber.StatusInternalServerError
	}
	if message == "" {
		message = defaultMessage(status)
	}
	return c.Status(status).JSON(Response{Status: status, Message: message})
}

func defaultMessage(status int) string {
	switch status {
	case fiber.StatusOK:
		return MessageOK
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusTooManyRequests:
		return MessageTooManyRequests
	}
	if status >= 500 {
		return MessageInternalServerError
	}
	return MessageError
}
