package server

import (
	"fmt"

	"github.com/eventgate/eventgate/pkg/config"
	handlers "github.com/eventgate/eventgate/pkg/handlers/http"
	"github.com/eventgate/eventgate/pkg/middleware"
	"github.com/sirupsen/logrus"
)

type (
	PublicServerDI struct {
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		Config              *config.Config
		Logger              *logrus.Logger
	}
	PublicServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewPublicServer(di PublicServerDI) *PublicServer {
	return &PublicServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}
}

func (s *PublicServer) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("Starting public server")
	return s.Router.Listen(addr)
}

func (s *PublicServer) setupRoutes() {
	s.Router.Use(s.middlewareTransport.PanicRecoverMiddleware.Middleware())
	s.Router.Use(s.middlewareTransport.MetricsMiddleware.Middleware())

	v1 := s.Router.Group("/api/v1")
	{
		v1.Get("/version", s.handlerTransport.GetVersionHandler.Handle)

		events := v1.Group("/events")
		{
			events.Get("", s.handlerTransport.ListEventsHandler.Handle)
			events.Get("/:event_id", s.handlerTransport.GetEventHandler.Handle)
			events.Post("/:event_id/registrations", s.handlerTransport.CreateRegistrationHandler.Handle)
		}
	}
}

func (s *PublicServer) Shutdown() error {
	return s.Router.Shutdown()
}
