package http

import (
	"context"
	"errors"
	"log"
	"time"

	nethttp "net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/restartfu/corepanel/internal/app"
	"github.com/restartfu/corepanel/internal/observability"
)

const writeTimeout = 5 * time.Second

type Server struct {
	ctx      context.Context
	service  *app.Service
	logger   *log.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewServer builds the handlers. Cancelling ctx ends open websocket streams,
// which http.Server.Shutdown does not track.
func NewServer(ctx context.Context, service *app.Service, interval time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Server{
		ctx:      ctx,
		service:  service,
		logger:   logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.GetHealth)
	api := e.Group("/api")
	api.GET("/identity", s.GetIdentity)
	api.GET("/cores", s.GetCores)
	api.GET("/panel", s.GetPanel)
	api.GET("/ws", s.StreamPanel)
}

func (s *Server) GetHealth(ctx echo.Context) error {
	health := s.service.Health()
	return ctx.JSON(nethttp.StatusOK, healthResponse{
		Status: health.Status,
		Time:   health.Time,
	})
}

func (s *Server) GetIdentity(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, toIdentity(s.service.Identity()))
}

func (s *Server) GetCores(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, toCores(s.service.Cores()))
}

func (s *Server) GetPanel(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, toPanel(s.service.Panel()))
}

// StreamPanel upgrades to a websocket and pushes a panel snapshot every
// interval until the client goes away.
func (s *Server) StreamPanel(ctx echo.Context) error {
	conn, err := s.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		s.logger.Printf("ws upgrade: %v", err)
		return nil
	}
	defer conn.Close()

	streamCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Reads only serve to notice the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Printf("ws read: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(toPanel(s.service.Panel())); err != nil {
			if streamCtx.Err() == nil {
				observability.CaptureError(err, map[string]string{
					"component": "http",
					"handler":   "ws",
				}, nil)
			}
			return nil
		}
		select {
		case <-streamCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		case <-ticker.C:
		}
	}
}

// NewEcho returns an echo instance with the middleware chain every route
// shares: request ids, JSON access log, panic recovery and error capture.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handleError
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Request().Header.Set(echo.HeaderXRequestID, id)
		},
	}))
	if observability.Enabled() {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","request_id":"${header:X-Request-ID}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}","bytes_out":${bytes_out},"error":"${error}"}` + "\n",
		Output: log.Writer(),
	}))
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			var httpErr *echo.HTTPError
			if err != nil && !(errors.As(err, &httpErr) && httpErr.Code < nethttp.StatusInternalServerError) {
				observability.CaptureError(err, map[string]string{
					"component": "http",
					"route":     c.Path(),
				}, map[string]interface{}{
					"method": c.Request().Method,
					"uri":    c.Request().RequestURI,
				})
			}
			return err
		}
	})
	return e
}

func handleError(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}
	status := nethttp.StatusInternalServerError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			err = errors.New(msg)
		}
	}
	_ = errorJSON(ctx, status, err)
}

func errorJSON(ctx echo.Context, status int, err error) error {
	return ctx.JSON(status, errorResponse{Error: err.Error()})
}
