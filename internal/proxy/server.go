// Package proxy serves POST /api/chat, a pass-through to the model
// provider that keeps the API key on the server.
package proxy

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// Config configures the HTTP surface.
type Config struct {
	AllowOrigins string // CORS origins, default "*"
	BodyLimitMB  int    // default 10
	AccessLog    bool
}

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type handler struct {
	fwd       Forwarder
	validator *Validator
	log       *logrus.Logger
}

// New builds the proxy app.
func New(cfg Config, fwd Forwarder, log *logrus.Logger) *fiber.App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}
	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 10
	}

	app := fiber.New(fiber.Config{
		AppName:               "sunny",
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{Output: log.Writer()}))
	}

	h := &handler{fwd: fwd, validator: NewValidator(), log: log}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.All("/api/chat", h.chat)

	return app
}

func (h *handler) chat(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(errorBody{Error: "Method not allowed"})
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "Request body is not valid"})
	}
	if err := h.validator.Validate(&req); err != nil {
		var fields *FieldsError
		if errors.As(err, &fields) {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "Request body is not valid", Fields: fields.Fields})
		}
		return err
	}

	raw, err := h.fwd.Forward(c.UserContext(), req)
	if err != nil {
		var upstream *UpstreamError
		switch {
		case errors.As(err, &upstream):
			h.log.WithField("status", upstream.Status).WithError(err).Error("provider API error")
			return c.Status(upstream.Status).JSON(errorBody{Error: "API call failed"})
		case errors.Is(err, ErrNoAPIKey):
			h.log.Error("proxy has no provider API key; set SUNNY_PROXY_API_KEY or ANTHROPIC_API_KEY")
		default:
			h.log.WithError(err).Error("proxy request failed")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "Internal server error"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(raw)
}

func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.WithError(err).Error("unhandled proxy error")
			return c.Status(code).JSON(errorBody{Error: "Internal server error"})
		}
		return c.Status(code).JSON(errorBody{Error: err.Error()})
	}
}
