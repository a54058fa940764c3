package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/apperr"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const bodyLimit = 50 * 1024 * 1024

type Server struct {
	app *fiber.App
}

var log = logger.GetLogger() // Instancia logger para el pakg

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func NewServer() *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return err
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return &Server{app: app}
}

// App exposes the router so modules can register their routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on addr until ctx is cancelled, then shuts down within 5s.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()

		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.app.ShutdownWithContext(shutdownCtx)
	}()

	log.Info("HTTP server started", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// ErrorHandler renders apperr.Error, fiber.Error and unknown errors as ErrorBody.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	var fiberErr *fiber.Error

	body := ErrorBody{}
	status := fiber.StatusInternalServerError

	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		body.Error = ErrorDetail{Code: appErr.Code, Message: appErr.Error(), Fields: appErr.Fields}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		body.Error = ErrorDetail{Code: "HTTPError", Message: fiberErr.Message}
	default:
		body.Error = ErrorDetail{Code: apperr.CodeInternal, Message: "internal server error"}
	}

	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
		if appErr != nil {
			body.Error.Message = "internal server error"
		}
	}

	return c.Status(status).JSON(body)
}
