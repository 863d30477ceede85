package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
)

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperror.Validation("body", "invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.Validation("body", "request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperror.Validation("body", "request body is required")
		}
		return apperror.Validation("body", "invalid request body")
	}
	return nil
}
