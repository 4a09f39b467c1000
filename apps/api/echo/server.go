package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
	"github.com/darasahub/darasa/realtime"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Guard          *auth.Guard
		Codec          *auth.Codec
		PrincipalSvc   *principal.Service
		Registry       *realtime.Registry
		Router         *realtime.Router
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     *ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errs     chan error
	}
)

func NewServer(deps *ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errs:     make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	authed := authMiddleware(s.deps.Guard)

	registerAuthAPI(v1, authed, s.deps)
	registerNotificationAPI(v1, authed, s.deps)
	registerRealtimeAPI(v1, s.deps)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		if err := s.app.Start(s.deps.Conf.Server.APIHost); err != nil && err != http.ErrServerClosed {
			s.errs <- err
		}
	}()
}

// SignalShutdown lets the error handler trigger a graceful stop when an
// unrecoverable error bubbles up.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }
func (s *Server) Errors() <-chan error             { return s.errs }

func (s *Server) Stop(ctx context.Context) error {
	s.deps.Registry.Close()
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
