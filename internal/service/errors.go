package service

import (
	"errors"
	"strings"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
)

const (
	conversationNotFoundMessage = "conversation not found"
	messageNotFoundMessage      = "message not found"
	userNotFoundMessage         = "user not found"
)

// translateRepoError maps repository sentinels onto error kinds. Anything else is
// unexpected and keeps its cause for logging.
func translateRepoError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConversationNotFound):
		return apperror.NotFound(conversationNotFoundMessage)
	case errors.Is(err, repository.ErrMessageNotFound):
		return apperror.NotFound(messageNotFoundMessage)
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.NotFound(userNotFoundMessage)
	case errors.Is(err, repository.ErrEmailTaken):
		return apperror.Conflict("email already in use")
	default:
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Unexpected(op, err)
	}
}

func requireRequester(requesterID string) error {
	if strings.TrimSpace(requesterID) == "" {
		return apperror.Authentication("authentication required")
	}
	return nil
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	return strings.ToLower(string(apperror.KindOf(err)))
}
