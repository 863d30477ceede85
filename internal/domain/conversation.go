package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
)

const MaxTitleLength = 200

type Conversation struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Title     string     `gorm:"size:200;not null"`
	AuthorID  string     `gorm:"size:36;index;not null"`
	Author    *User      `gorm:"foreignKey:AuthorID"`
	Messages  []Message  `gorm:"foreignKey:ConversationID"`
	CreatedAt time.Time  `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

func NewConversation(authorID, title string) (*Conversation, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, apperror.Validation("authorId", "author is required")
	}
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	return &Conversation{AuthorID: authorID, Title: title}, nil
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.Validation("title", "title must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperror.Validation("title", "title must be at most 200 characters")
	}
	return nil
}

// Rename validates and applies a new title.
func (c *Conversation) Rename(title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	c.Title = title
	return nil
}
