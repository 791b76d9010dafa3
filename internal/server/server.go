package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// MessageHandler is what the webhook hands normalized events to; the
// conversation engine satisfies it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage)
}

// Server owns the webhook HTTP surface. Whatever happens inside a turn, the
// webhook answers 200: provider retry storms are worse than a lost reply.
type Server struct {
	app         *fiber.App
	handler     MessageHandler
	verifyToken string
	logger      *zap.Logger
}

func New(handler MessageHandler, verifyToken string, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{
		app:         app,
		handler:     handler,
		verifyToken: verifyToken,
		logger:      logger,
	}

	app.Get("/", s.handleHome)
	app.Get("/whatsapp", s.handleVerification)
	app.Post("/whatsapp", s.handleWebhook)
	return s
}

// Listen blocks serving the webhook on the given port.
func (s *Server) Listen(port int) error {
	return s.app.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHome(c *fiber.Ctx) error {
	return c.SendString("Email Bot Running. Use /whatsapp for webhook.")
}

// handleVerification answers Meta's subscription handshake.
func (s *Server) handleVerification(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		return c.SendString(challenge)
	}
	s.logger.Warn("webhook verification rejected", zap.String("mode", mode))
	return c.Status(fiber.StatusForbidden).SendString("Forbidden")
}

func (s *Server) handleWebhook(c *fiber.Ctx) error {
	msg, ok := s.normalize(c)
	if !ok {
		// Status updates, unknown shapes, empty bodies: acknowledge and drop.
		return c.SendString("OK")
	}

	s.handler.HandleMessage(c.Context(), msg)
	return c.SendString("OK")
}

// normalize maps either supported raw payload shape onto an InboundMessage.
func (s *Server) normalize(c *fiber.Ctx) (models.InboundMessage, bool) {
	contentType := string(c.Request().Header.ContentType())
	if strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		return parseMetaPayload(c.Body())
	}
	return parseTwilioForm(c.FormValue("Body"), c.FormValue("From"))
}
