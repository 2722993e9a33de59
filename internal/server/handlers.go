package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/contracts"
	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/server/middleware"
)

// maxJSONBody caps request bodies outside of file uploads.
const maxJSONBody = 1 << 20

// decodeJSON reads the request body into dst and validates it. On failure
// it writes a 400 and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// pathID parses the named path wildcard as a UUID. On failure it writes a
// 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name, kind string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID", kind))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// queryUUID reads an optional UUID query parameter. ok is false when the
// parameter is present but malformed.
func queryUUID(r *http.Request, name string) (id *uuid.UUID, ok bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(v)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

// serviceError maps err to a status code and writes it. Internal errors are
// logged and hidden from the client.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, s.logger, err)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String(logger.FieldMethod, r.Method),
			zap.String(logger.FieldPath, r.URL.Path),
			zap.Error(err),
		}
		if userID, uerr := middleware.GetUserID(r); uerr == nil {
			fields = append(fields, zap.Stringer(logger.FieldUserID, userID))
		}
		log.Error("request failed", fields...)
		errorResponse(w, status, "Internal server error")
		return
	}

	var verr *contracts.ValidationError
	if errors.As(err, &verr) {
		jsonResponse(w, status, map[string]any{"error": "Contract data invalid", "details": verr.Errors})
		return
	}
	errorResponse(w, status, err.Error())
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
