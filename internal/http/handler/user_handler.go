package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/secure-forum-backend/internal/http/response"
	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

type UserHandler struct {
	svc service.UserServiceInterface
}

func NewUserHandler(svc service.UserServiceInterface) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Contributions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, c)
}
