package service

import (
	"context"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
)

type ConversationService struct {
	conversations repository.ConversationRepository
}

func NewConversationService(conversations repository.ConversationRepository) *ConversationService {
	return &ConversationService{conversations: conversations}
}

// Create stores a conversation together with its first message.
func (s *ConversationService) Create(ctx context.Context, authorID, title, content string) (id string, err error) {
	ctx, span := observability.StartSpan(ctx, "conversation.create")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "conversation", "create", statusOf(err)) }()

	if err := requireRequester(authorID); err != nil {
		return "", err
	}
	conversation, err := domain.NewConversation(authorID, title)
	if err != nil {
		return "", err
	}
	first, err := domain.NewMessage(authorID, "", content)
	if err != nil {
		return "", err
	}
	if err := s.conversations.CreateWithFirstMessage(ctx, conversation, first); err != nil {
		return "", translateRepoError("create conversation", err)
	}
	return conversation.ID, nil
}

func (s *ConversationService) UpdateTitle(ctx context.Context, requesterID, conversationID, title string) (err error) {
	ctx, span := observability.StartSpan(ctx, "conversation.update_title")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "conversation", "update_title", statusOf(err)) }()

	conversation, err := s.ownedConversation(ctx, requesterID, conversationID)
	if err != nil {
		return err
	}
	if err := conversation.Rename(title); err != nil {
		return err
	}
	return translateRepoError("update conversation title", s.conversations.UpdateTitle(ctx, conversation.ID, conversation.Title))
}

// Delete soft-deletes the conversation and all of its live messages atomically.
func (s *ConversationService) Delete(ctx context.Context, requesterID, conversationID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "conversation.delete")
	defer span.End()
	defer func() { observability.RecordContentMutation(ctx, "conversation", "delete", statusOf(err)) }()

	conversation, err := s.ownedConversation(ctx, requesterID, conversationID)
	if err != nil {
		return err
	}
	if _, err := s.conversations.SoftDeleteCascade(ctx, conversation.ID); err != nil {
		return translateRepoError("delete conversation", err)
	}
	return nil
}

func (s *ConversationService) ownedConversation(ctx context.Context, requesterID, conversationID string) (*domain.Conversation, error) {
	if err := requireRequester(requesterID); err != nil {
		return nil, err
	}
	conversation, err := s.conversations.FindLiveByID(ctx, conversationID)
	if err != nil {
		return nil, translateRepoError("find conversation", err)
	}
	if conversation.AuthorID != requesterID {
		return nil, apperror.Forbidden("only the author can modify this conversation")
	}
	return conversation, nil
}

func (s *ConversationService) List(ctx context.Context) ([]ConversationListItem, error) {
	summaries, err := s.conversations.ListLive(ctx)
	if err != nil {
		return nil, translateRepoError("list conversations", err)
	}
	items := make([]ConversationListItem, 0, len(summaries))
	for _, summary := range summaries {
		c := summary.Conversation
		item := ConversationListItem{
			ID:           c.ID,
			Title:        c.Title,
			Author:       authorInfo(c.AuthorID, c.Author),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: summary.MessageCount,
		}
		if summary.LastMessage != nil {
			last := messageView(summary.LastMessage)
			item.LastMessage = &last
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *ConversationService) Get(ctx context.Context, conversationID string) (*ConversationDetail, error) {
	c, err := s.conversations.FindLiveWithMessages(ctx, conversationID)
	if err != nil {
		return nil, translateRepoError("get conversation", err)
	}
	detail := &ConversationDetail{
		ID:        c.ID,
		Title:     c.Title,
		Author:    authorInfo(c.AuthorID, c.Author),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]MessageView, 0, len(c.Messages)),
	}
	for i := range c.Messages {
		detail.Messages = append(detail.Messages, messageView(&c.Messages[i]))
	}
	return detail, nil
}
