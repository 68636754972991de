package server

import (
	"fmt"

	"github.com/eventgate/eventgate/pkg/config"
	handlers "github.com/eventgate/eventgate/pkg/handlers/http"
	"github.com/eventgate/eventgate/pkg/middleware"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		Config              *config.Config
		Logger              *logrus.Logger
	}
	AdminServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	return &AdminServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}
}

func (s *AdminServer) Run() error {
	// Health stays reachable without credentials.
	s.setupHealthCheck()
	s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("Starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) setupRoutes() {
	s.Router.Use(s.middlewareTransport.PanicRecoverMiddleware.Middleware())
	s.Router.Use(s.middlewareTransport.AdminAuthMiddleware.Middleware())

	v1 := s.Router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.Post("", s.handlerTransport.CreateEventHandler.Handle)
			events.Get("", s.handlerTransport.ListAllEventsHandler.Handle)
			events.Get("/:event_id", s.handlerTransport.GetEventHandler.Handle)
			events.Put("/:event_id", s.handlerTransport.UpdateEventHandler.Handle)

			events.Get("/:event_id/registrations", s.handlerTransport.ListRegistrationsHandler.Handle)
		}

		v1.Get("/security-events", s.handlerTransport.ListSecurityEventsHandler.Handle)
	}
}

func (s *AdminServer) Shutdown() error {
	return s.Router.Shutdown()
}
