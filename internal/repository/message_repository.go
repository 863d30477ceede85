package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	CreateInLiveConversation(ctx context.Context, m *domain.Message) error
	FindLiveByID(ctx context.Context, id string) (*domain.Message, error)
	ListLiveByAuthor(ctx context.Context, authorID string) ([]domain.Message, error)
	UpdateContent(ctx context.Context, id, content string) error
	SoftDelete(ctx context.Context, id string) error
}

type GormMessageRepository struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) MessageRepository { return &GormMessageRepository{db: db} }

// CreateInLiveConversation locks the parent conversation row, checks it is live and appends
// m, all in one transaction. A deleted or absent parent yields ErrConversationNotFound.
func (r *GormMessageRepository) CreateInLiveConversation(ctx context.Context, m *domain.Message) error {
	if err := ensureID(&m.ID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent domain.Conversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ? AND deleted_at IS NULL", m.ConversationID).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}
		return tx.Omit(clause.Associations).Create(m).Error
	})
	observability.RecordRepositoryOperation(ctx, "message", "create_in_live_conversation", outcome(err, ErrConversationNotFound))
	return err
}

func (r *GormMessageRepository) FindLiveByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrMessageNotFound
	}
	observability.RecordRepositoryOperation(ctx, "message", "find_live_by_id", outcome(err, ErrMessageNotFound))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListLiveByAuthor returns the author's live messages newest first with their conversation
// loaded, including messages posted in conversations started by other users.
func (r *GormMessageRepository) ListLiveByAuthor(ctx context.Context, authorID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Conversation").
		Where("author_id = ? AND deleted_at IS NULL", authorID).
		Order("created_at DESC").Order("id DESC").
		Find(&messages).Error
	observability.RecordRepositoryOperation(ctx, "message", "list_live_by_author", outcome(err, nil))
	return messages, err
}

func (r *GormMessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	res := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"content": content, "updated_at": utcNow()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrMessageNotFound
	}
	observability.RecordRepositoryOperation(ctx, "message", "update_content", outcome(err, ErrMessageNotFound))
	return err
}

// SoftDelete marks a single live message as deleted. Siblings and the parent are untouched.
func (r *GormMessageRepository) SoftDelete(ctx context.Context, id string) error {
	now := utcNow()
	res := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrMessageNotFound
	}
	observability.RecordRepositoryOperation(ctx, "message", "soft_delete", outcome(err, ErrMessageNotFound))
	return err
}
