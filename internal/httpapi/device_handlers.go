package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

var errMissingCredentials = errors.New("missing chipId or token")

// Hardware never learns why a call failed. Every authenticated-path error
// becomes this one response; the cause is only logged.
func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, cause error) {
	s.logger.Debug("device call rejected",
		zap.String("path", r.URL.Path),
		zap.Error(cause),
	)
	writeText(w, http.StatusUnauthorized, "Unauthorized")
}

// bearerToken returns the token from "Authorization: Bearer <token>", or
// "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// queryToken serves GET calls, where older firmware passes the token next
// to chipId. The header wins when both are present.
func queryToken(r *http.Request) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// authenticate resolves the calling device. It writes the 401 itself and
// reports false when the caller must stop.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, chipID, token string) (store.DeviceRecord, bool) {
	if strings.TrimSpace(chipID) == "" || token == "" {
		s.unauthorized(w, r, errMissingCredentials)
		return store.DeviceRecord{}, false
	}
	dev, err := s.auth.Authenticate(r.Context(), chipID, token)
	if err != nil {
		s.unauthorized(w, r, err)
		return store.DeviceRecord{}, false
	}
	return dev, true
}

func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.authenticate(w, r, r.URL.Query().Get("chipId"), queryToken(r))
	if !ok {
		return
	}

	resp, err := s.whitelist.ForDevice(r.Context(), dev)
	if err != nil {
		s.unauthorized(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.authenticate(w, r, r.URL.Query().Get("chipId"), queryToken(r))
	if !ok {
		return
	}

	resp, err := s.config.ForDevice(r.Context(), dev)
	if err != nil {
		s.unauthorized(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.unauthorized(w, r, errMissingCredentials)
		return
	}

	var req types.SyncLogsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.unauthorized(w, r, err)
		return
	}
	dev, ok := s.authenticate(w, r, req.ChipID, token)
	if !ok {
		return
	}

	resp, err := s.logs.Ingest(r.Context(), dev, req.Logs)
	if err != nil {
		s.unauthorized(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.unauthorized(w, r, errMissingCredentials)
		return
	}

	var req types.HeartbeatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.unauthorized(w, r, err)
		return
	}
	dev, ok := s.authenticate(w, r, req.ChipID, token)
	if !ok {
		return
	}

	resp, err := s.heartbeats.Record(r.Context(), dev, req)
	if err != nil {
		s.unauthorized(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, resp)
}

// Registration is open: a node announces its chip id before an operator
// has provisioned it a token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.registrationFailed(w, err)
		return
	}

	dev, err := s.registry.Register(r.Context(), req.ChipID)
	if err != nil {
		s.registrationFailed(w, err)
		return
	}
	writeResponse(w, r, http.StatusOK, dev)
}

func (s *Server) registrationFailed(w http.ResponseWriter, cause error) {
	s.logger.Warn("device registration failed", zap.Error(cause))
	writeText(w, http.StatusBadRequest, "Registration failed")
}
