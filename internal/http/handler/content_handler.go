package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/middleware"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/response"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ConversationServiceInterface
}

func NewConversationHandler(svc service.ConversationServiceInterface) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type createConversationRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateConversationRequest struct {
	Title string `json:"title"`
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	id, err := h.svc.Create(r.Context(), principal.UserID, req.Title, req.Content)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "conversation.create", "user_id", principal.UserID, "conversation_id", id)
	response.JSON(w, r, http.StatusCreated, map[string]string{"conversationId": id})
}

func (h *ConversationHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	var req updateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateTitle(r.Context(), principal.UserID, id, req.Title); err != nil {
		auditDenied(r, "conversation.update", principal.UserID, err, "conversation_id", id)
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "conversation.update", "user_id", principal.UserID, "conversation_id", id)
	response.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), principal.UserID, id); err != nil {
		auditDenied(r, "conversation.delete", principal.UserID, err, "conversation_id", id)
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "conversation.delete", "user_id", principal.UserID, "conversation_id", id)
	response.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

type MessageHandler struct {
	svc service.MessageServiceInterface
}

func NewMessageHandler(svc service.MessageServiceInterface) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type createMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
}

type updateMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	id, err := h.svc.Create(r.Context(), principal.UserID, req.ConversationID, req.Content)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "message.create", "user_id", principal.UserID, "conversation_id", req.ConversationID, "message_id", id)
	response.JSON(w, r, http.StatusCreated, map[string]string{"messageId": id})
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	var req updateMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Update(r.Context(), principal.UserID, id, req.Content); err != nil {
		auditDenied(r, "message.update", principal.UserID, err, "message_id", id)
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "message.update", "user_id", principal.UserID, "message_id", id)
	response.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), principal.UserID, id); err != nil {
		auditDenied(r, "message.delete", principal.UserID, err, "message_id", id)
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "message.delete", "user_id", principal.UserID, "message_id", id)
	response.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// principalOrError backs up RequirePrincipal for handlers mounted without it.
func principalOrError(w http.ResponseWriter, r *http.Request) (service.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.FromError(w, r, apperror.Authentication("authentication required"))
		return service.Principal{}, false
	}
	return p, true
}

func auditDenied(r *http.Request, event, userID string, err error, attrs ...any) {
	if apperror.KindOf(err) != apperror.KindForbidden {
		return
	}
	observability.Audit(r, event+".denied", append([]any{"user_id", userID}, attrs...)...)
}
