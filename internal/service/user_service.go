package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
)

const userNotFoundNamespace = "user.not_found"

type UserService struct {
	users         repository.UserRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	negCache      NegativeLookupCacheStore
	negCacheTTL   time.Duration
}

func NewUserService(users repository.UserRepository, conversations repository.ConversationRepository, messages repository.MessageRepository, negCache NegativeLookupCacheStore, negCacheTTL time.Duration) *UserService {
	if negCache == nil {
		negCache = NewNoopNegativeLookupCacheStore()
	}
	return &UserService{users: users, conversations: conversations, messages: messages, negCache: negCache, negCacheTTL: negCacheTTL}
}

// Contributions returns the public profile of userID with their live conversations and
// live messages, newest first. Unknown ids are remembered in the negative lookup cache.
func (s *UserService) Contributions(ctx context.Context, userID string) (*Contributions, error) {
	if hit, err := s.negCache.Get(ctx, userNotFoundNamespace, userID); err != nil {
		slog.WarnContext(ctx, "negative lookup cache read failed", "namespace", userNotFoundNamespace, "error", err)
	} else if hit {
		return nil, apperror.NotFound(userNotFoundMessage)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if cacheErr := s.negCache.Set(ctx, userNotFoundNamespace, userID, s.negCacheTTL); cacheErr != nil {
				slog.WarnContext(ctx, "negative lookup cache write failed", "namespace", userNotFoundNamespace, "error", cacheErr)
			}
		}
		return nil, translateRepoError("find user", err)
	}

	summaries, err := s.conversations.ListLiveByAuthor(ctx, user.ID)
	if err != nil {
		return nil, translateRepoError("list user conversations", err)
	}
	messages, err := s.messages.ListLiveByAuthor(ctx, user.ID)
	if err != nil {
		return nil, translateRepoError("list user messages", err)
	}

	out := &Contributions{
		User: PublicUserInfo{
			ID:        user.ID,
			Name:      user.Name,
			Avatar:    user.Avatar,
			Bio:       user.Bio,
			CreatedAt: user.CreatedAt,
		},
		Conversations: make([]ConversationContribution, 0, len(summaries)),
		Messages:      make([]MessageContribution, 0, len(messages)),
	}
	for _, summary := range summaries {
		c := summary.Conversation
		out.Conversations = append(out.Conversations, ConversationContribution{
			ID:           c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: summary.MessageCount,
		})
	}
	for _, m := range messages {
		mc := MessageContribution{
			ID:             m.ID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
			ConversationID: m.ConversationID,
		}
		if m.Conversation != nil {
			mc.ConversationTitle = m.Conversation.Title
		}
		out.Messages = append(out.Messages, mc)
	}
	return out, nil
}
