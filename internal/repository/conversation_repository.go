package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationSummary is a live conversation with its author, the number of live messages
// and the most recent live message, if any.
type ConversationSummary struct {
	Conversation domain.Conversation
	MessageCount int64
	LastMessage  *domain.Message
}

type ConversationRepository interface {
	CreateWithFirstMessage(ctx context.Context, c *domain.Conversation, first *domain.Message) error
	FindLiveByID(ctx context.Context, id string) (*domain.Conversation, error)
	FindLiveWithMessages(ctx context.Context, id string) (*domain.Conversation, error)
	ListLive(ctx context.Context) ([]ConversationSummary, error)
	ListLiveByAuthor(ctx context.Context, authorID string) ([]ConversationSummary, error)
	UpdateTitle(ctx context.Context, id, title string) error
	SoftDeleteCascade(ctx context.Context, id string) (int64, error)
}

type GormConversationRepository struct{ db *gorm.DB }

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &GormConversationRepository{db: db}
}

// CreateWithFirstMessage inserts c and first in one transaction; neither row exists if
// either insert fails.
func (r *GormConversationRepository) CreateWithFirstMessage(ctx context.Context, c *domain.Conversation, first *domain.Message) error {
	if err := ensureID(&c.ID); err != nil {
		return err
	}
	if err := ensureID(&first.ID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		first.ConversationID = c.ID
		if first.AuthorID == "" {
			first.AuthorID = c.AuthorID
		}
		return tx.Omit(clause.Associations).Create(first).Error
	})
	observability.RecordRepositoryOperation(ctx, "conversation", "create_with_first_message", outcome(err, nil))
	return err
}

func (r *GormConversationRepository) FindLiveByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrConversationNotFound
	}
	observability.RecordRepositoryOperation(ctx, "conversation", "find_live_by_id", outcome(err, ErrConversationNotFound))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindLiveWithMessages loads the conversation, its author and its live messages oldest first.
func (r *GormConversationRepository) FindLiveWithMessages(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted_at IS NULL").Order("created_at ASC").Order("id ASC")
		}).
		Preload("Messages.Author").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrConversationNotFound
	}
	observability.RecordRepositoryOperation(ctx, "conversation", "find_live_with_messages", outcome(err, ErrConversationNotFound))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormConversationRepository) ListLive(ctx context.Context) ([]ConversationSummary, error) {
	out, err := r.listLive(ctx, r.db.WithContext(ctx))
	observability.RecordRepositoryOperation(ctx, "conversation", "list_live", outcome(err, nil))
	return out, err
}

func (r *GormConversationRepository) ListLiveByAuthor(ctx context.Context, authorID string) ([]ConversationSummary, error) {
	out, err := r.listLive(ctx, r.db.WithContext(ctx).Where("author_id = ?", authorID))
	observability.RecordRepositoryOperation(ctx, "conversation", "list_live_by_author", outcome(err, nil))
	return out, err
}

func (r *GormConversationRepository) listLive(ctx context.Context, base *gorm.DB) ([]ConversationSummary, error) {
	var conversations []domain.Conversation
	err := base.Preload("Author").
		Where("deleted_at IS NULL").
		Order("created_at DESC").Order("id DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []ConversationSummary{}, nil
	}
	ids := make([]string, len(conversations))
	for i := range conversations {
		ids[i] = conversations[i].ID
	}

	type countRow struct {
		ConversationID string
		Total          int64
	}
	var counts []countRow
	err = r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("deleted_at IS NULL AND conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	countByID := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByID[c.ConversationID] = c.Total
	}

	ranked := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("id, content, author_id, conversation_id, created_at, updated_at, deleted_at, " +
			"ROW_NUMBER() OVER (PARTITION BY conversation_id ORDER BY created_at DESC, id DESC) AS rn").
		Where("deleted_at IS NULL AND conversation_id IN ?", ids)
	var latest []domain.Message
	err = r.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Select("id, content, author_id, conversation_id, created_at, updated_at, deleted_at").
		Where("rn = 1").
		Preload("Author").
		Find(&latest).Error
	if err != nil {
		return nil, err
	}
	latestByID := make(map[string]*domain.Message, len(latest))
	for i := range latest {
		latestByID[latest[i].ConversationID] = &latest[i]
	}

	out := make([]ConversationSummary, len(conversations))
	for i, c := range conversations {
		out[i] = ConversationSummary{
			Conversation: c,
			MessageCount: countByID[c.ID],
			LastMessage:  latestByID[c.ID],
		}
	}
	return out, nil
}

// UpdateTitle rewrites the title of a live conversation.
func (r *GormConversationRepository) UpdateTitle(ctx context.Context, id, title string) error {
	res := r.db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"title": title, "updated_at": utcNow()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrConversationNotFound
	}
	observability.RecordRepositoryOperation(ctx, "conversation", "update_title", outcome(err, ErrConversationNotFound))
	return err
}

// SoftDeleteCascade marks the conversation and every live message under it as deleted in
// one transaction and returns the number of messages marked. A conversation that is already
// deleted or absent yields ErrConversationNotFound and nothing changes.
func (r *GormConversationRepository) SoftDeleteCascade(ctx context.Context, id string) (int64, error) {
	var cascaded int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := utcNow()
		res := tx.Model(&domain.Conversation{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(map[string]any{"deleted_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		res = tx.Model(&domain.Message{}).
			Where("conversation_id = ? AND deleted_at IS NULL", id).
			Updates(map[string]any{"deleted_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		cascaded = res.RowsAffected
		return nil
	})
	observability.RecordRepositoryOperation(ctx, "conversation", "soft_delete_cascade", outcome(err, ErrConversationNotFound))
	if err != nil {
		return 0, err
	}
	return cascaded, nil
}
