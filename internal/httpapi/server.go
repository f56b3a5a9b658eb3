package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
)

type Dependencies struct {
	Logger *zap.Logger
	Addr   string

	Registry   *service.DeviceRegistry
	Auth       *service.Authenticator
	Heartbeats *service.HeartbeatService
	Whitelist  *service.WhitelistService
	Logs       *service.LogService
	Config     *service.ConfigService
	Attendance *service.AttendanceService
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     *mux.Router

	registry   *service.DeviceRegistry
	auth       *service.Authenticator
	heartbeats *service.HeartbeatService
	whitelist  *service.WhitelistService
	logs       *service.LogService
	config     *service.ConfigService
	attendance *service.AttendanceService
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger:     logger,
		router:     mux.NewRouter(),
		registry:   d.Registry,
		auth:       d.Auth,
		heartbeats: d.Heartbeats,
		whitelist:  d.Whitelist,
		logs:       d.Logs,
		config:     d.Config,
		attendance: d.Attendance,
	}

	// Hardware nodes.
	s.router.HandleFunc("/api/whitelist", s.handleWhitelist).Methods(http.MethodGet)
	s.router.HandleFunc("/api/logs", s.handleSyncLogs).Methods(http.MethodPost)
	s.router.HandleFunc("/api/heartbeat", s.handleHeartbeat).Methods(http.MethodPost)
	s.router.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/api/config", s.handleConfig).Methods(http.MethodGet)

	// Mobile clients.
	s.router.HandleFunc("/api/attendance", s.handleAttendance).Methods(http.MethodPost)
	s.router.HandleFunc("/api/time", s.handleTime).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           loggingMiddleware(logger, s.router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
