package service

import (
	"context"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
)

type MessageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

// Create appends a message to a live conversation.
func (s *MessageService) Create(ctx context.Context, authorID, conversationID, content string) (id string, err error) {
	ctx, span := observability.StartSpan(ctx, "message.create")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "message", "create", statusOf(err)) }()

	if err := requireRequester(authorID); err != nil {
		return "", err
	}
	message, err := domain.NewMessage(authorID, conversationID, content)
	if err != nil {
		return "", err
	}
	if err := s.messages.CreateInLiveConversation(ctx, message); err != nil {
		return "", translateRepoError("create message", err)
	}
	return message.ID, nil
}

func (s *MessageService) Update(ctx context.Context, requesterID, messageID, content string) (err error) {
	ctx, span := observability.StartSpan(ctx, "message.update")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "message", "update", statusOf(err)) }()

	message, err := s.ownedMessage(ctx, requesterID, messageID)
	if err != nil {
		return err
	}
	if err := message.Edit(content); err != nil {
		return err
	}
	return translateRepoError("update message", s.messages.UpdateContent(ctx, message.ID, message.Content))
}

// Delete soft-deletes one message. The parent and siblings are untouched.
func (s *MessageService) Delete(ctx context.Context, requesterID, messageID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "message.delete")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "message", "delete", statusOf(err)) }()

	message, err := s.ownedMessage(ctx, requesterID, messageID)
	if err != nil {
		return err
	}
	return translateRepoError("delete message", s.messages.SoftDelete(ctx, message.ID))
}

func (s *MessageService) Get(ctx context.Context, messageID string) (*MessageView, error) {
	message, err := s.messages.FindLiveByID(ctx, messageID)
	if err != nil {
		return nil, translateRepoError("get message", err)
	}
	view := messageView(message)
	return &view, nil
}

func (s *MessageService) ownedMessage(ctx context.Context, requesterID, messageID string) (*domain.Message, error) {
	if err := requireRequester(requesterID); err != nil {
		return nil, err
	}
	message, err := s.messages.FindLiveByID(ctx, messageID)
	if err != nil {
		return nil, translateRepoError("find message", err)
	}
	if message.AuthorID != requesterID {
		return nil, apperror.Forbidden("only the author can modify this message")
	}
	return message, nil
}
