package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/domain/user"
)

// Server wires HTTP handlers to the domain services.
type Server struct {
	users     *user.Service
	notes     *note.Service
	steps     *steps.Processor
	schedules *schedule.Service
	logger    *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(users *user.Service, notes *note.Service, processor *steps.Processor, schedules *schedule.Service, verifier TokenVerifier, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		users:     users,
		notes:     notes,
		steps:     processor,
		schedules: schedules,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", srv.handleRegister)
		r.Post("/auth/login", srv.handleLogin)
		r.Post("/auth/token/refresh", srv.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(verifier))

			r.Get("/auth/user", srv.handleCurrentUser)

			r.With(RequireRole(user.RoleDoctor)).Post("/notes", srv.handleCreateNote)
			r.Get("/notes/{noteID}", srv.handleGetNote)
			r.Get("/notes/{noteID}/steps", srv.handleListSteps)
			r.Get("/notes/{noteID}/notifications", srv.handleNotifications)
			r.With(RequireRole(user.RolePatient)).Post("/notes/{noteID}/steps/{stepID}/complete", srv.handleCompleteStep)
			r.With(RequireRole(user.RoleDoctor)).Delete("/notes/{noteID}/schedules", srv.handleCancelSchedules)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidInput), errors.Is(err, user.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, "registering user", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.internalError(w, "logging in", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.users.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, user.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		s.internalError(w, "refreshing token", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	u, err := s.users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.internalError(w, "loading user", err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

type createNoteRequest struct {
	PatientID string `json:"patient_id"`
	Content   string `json:"content"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.notes.Create(r.Context(), claims.UserID, req.PatientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, note.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, note.ErrPatientNotFound):
			writeError(w, http.StatusBadRequest, "patient not found")
		default:
			s.internalError(w, "creating note", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	requester := note.Requester{UserID: claims.UserID, Role: claims.Role}
	n, err := s.notes.Get(r.Context(), chi.URLParam(r, "noteID"), requester)
	if err != nil {
		switch {
		case errors.Is(err, note.ErrNoteNotFound):
			writeError(w, http.StatusNotFound, "note not found")
		case errors.Is(err, note.ErrAccessDenied):
			writeError(w, http.StatusForbidden, "access denied")
		default:
			s.internalError(w, "loading note", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	list, err := s.steps.GetActionableSteps(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		if errors.Is(err, steps.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, "listing steps", err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	// Patients may only poll their own notifications.
	patientID := r.URL.Query().Get("patient_id")
	if claims.Role == user.RolePatient {
		patientID = claims.UserID
	}
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	due, err := s.schedules.GetDueNotifications(r.Context(), chi.URLParam(r, "noteID"), patientID)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, "listing notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, due)
}

func (s *Server) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	state, err := s.steps.CompleteStep(r.Context(), chi.URLParam(r, "noteID"), claims.UserID, chi.URLParam(r, "stepID"))
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrScheduleNotFound):
			writeError(w, http.StatusNotFound, "no active schedule for step")
		case errors.Is(err, schedule.ErrInvalidInput), errors.Is(err, steps.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, "completing step", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCancelSchedules(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.CancelNoteSchedules(r.Context(), chi.URLParam(r, "noteID")); err != nil {
		if errors.Is(err, schedule.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, "cancelling schedules", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Error("request failed", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
