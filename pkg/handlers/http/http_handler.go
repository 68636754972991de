package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Registration
	CreateRegistrationHandler Handler
	ListRegistrationsHandler  Handler

	// Event
	CreateEventHandler   Handler
	ListEventsHandler    Handler
	ListAllEventsHandler Handler
	GetEventHandler      Handler
	UpdateEventHandler   Handler

	// Security
	ListSecurityEventsHandler Handler

	// Version
	GetVersionHandler Handler
}
