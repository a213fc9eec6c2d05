package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/handler"
	appmiddleware "privacy-checkout/internal/middleware"
	"privacy-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	pixHandler     *handler.PixHandler
	webhookHandler *handler.WebhookHandler
}

func NewServer(pixService service.PixService, webhookService service.WebhookService, logger echo.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.HTTPErrorHandler = jsonErrorHandler

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		pixHandler:     handler.NewPixHandler(pixService),
		webhookHandler: handler.NewWebhookHandler(webhookService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/create-pix", s.pixHandler.CreatePix, appmiddleware.BuyerIP())
	api.GET("/check-payment-status", s.pixHandler.CheckPaymentStatus)

	// -------- gateway webhooks --------
	api.POST("/webhook/:gateway", s.webhookHandler.Receive)
}

// jsonErrorHandler renders every error as {"error": "<message>"}.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Erro interno do servidor"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			err = he.Internal
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	} else {
		c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, dto.ErrorResponse{Error: message})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
