package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/server/middleware"
	"github.com/jonathan/hr-admin/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, l *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		validator:   validator.New(),
		logger:      l,
	}
}

// Register handles user registration requests. Self-registration only
// creates employees; assignRoles lets an admin pick any role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request, assignRoles bool) {
	var req types.CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}
	if !assignRoles && req.Role != "" && req.Role != string(db.RoleEmployee) {
		errorResponse(w, http.StatusForbidden, "Only administrators can assign roles")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered",
		zap.Stringer(logger.FieldUserID, user.ID),
		zap.String("role", user.Role))
	jsonResponse(w, http.StatusCreated, types.LoginResponse{User: user, Token: token})
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	jsonResponse(w, http.StatusOK, types.LoginResponse{User: user, Token: token})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// UpdatePassword handles password update requests for the authenticated user.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.UpdatePasswordWithUserID(w, r, userID)
}

// UpdatePasswordWithUserID handles password update requests with an explicit user ID.
func (h *AuthHandler) UpdatePasswordWithUserID(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req types.UpdatePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
