package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/server/middleware"
	"github.com/jonathan/hr-admin/internal/types"
)

// ---------------------------------------------------------------------
// Auth Handlers
// ---------------------------------------------------------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r, false)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Me(w, r)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	s.authHandler.UpdatePassword(w, r)
}

// ---------------------------------------------------------------------
// User Administration Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r, true)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.ListUsers(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	out := make([]*types.User, 0, len(users))
	for i := range users {
		out = append(out, convertDBUserToTypesUser(&users[i]))
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}
	var req types.UpdateRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.deps.Users.SetUserRole(r.Context(), userID, db.Role(req.Role)); err != nil {
		s.serviceError(w, r, err)
		return
	}
	actorID, _ := middleware.GetUserID(r)
	s.logger.Info("user role changed",
		zap.Stringer(logger.FieldUserID, userID),
		zap.Stringer(logger.FieldActorID, actorID),
		zap.String("role", req.Role))
	jsonResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}
	if actorID, err := middleware.GetUserID(r); err == nil && actorID == userID {
		errorResponse(w, http.StatusConflict, "Cannot delete your own account")
		return
	}

	existing, err := s.deps.Users.GetUser(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if existing == nil {
		errorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	if err := s.deps.Users.DeleteUser(r.Context(), userID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
