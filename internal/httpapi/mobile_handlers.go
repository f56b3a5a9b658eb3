package httpapi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	var req types.AttendanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid attendance")
		return
	}

	resp, err := s.attendance.Record(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidAttendance):
		writeText(w, http.StatusBadRequest, "Invalid attendance")
		return
	case errors.Is(err, service.ErrUnknownUser):
		writeText(w, http.StatusNotFound, "Unknown user")
		return
	case err != nil:
		s.logger.Warn("attendance error", zap.String("submission_id", req.SubmissionID), zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, types.TimeResponse{
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
