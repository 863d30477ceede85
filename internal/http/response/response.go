package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, _ *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, errorBody{Error: message})
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindAuthentication:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as an error body. Unexpected errors are logged and their detail is
// never sent to the client. Validation rejections are logged at debug with the offending field.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindUnexpected:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
	case apperror.KindValidation:
		slog.DebugContext(r.Context(), "request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"field", apperror.FieldOf(err),
		)
	}
	Error(w, r, StatusFor(kind), apperror.PublicMessage(err))
}
