package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
)

const MaxContentLength = 2000

type Message struct {
	ID             string        `gorm:"primaryKey;size:36"`
	Content        string        `gorm:"type:text;not null"`
	AuthorID       string        `gorm:"size:36;index;not null"`
	Author         *User         `gorm:"foreignKey:AuthorID"`
	ConversationID string        `gorm:"size:36;index;not null"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID"`
	CreatedAt      time.Time     `gorm:"index"`
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
}

func NewMessage(authorID, conversationID, content string) (*Message, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, apperror.Validation("authorId", "author is required")
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	return &Message{AuthorID: authorID, ConversationID: conversationID, Content: content}, nil
}

func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.Validation("content", "content must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return apperror.Validation("content", "content must be at most 2000 characters")
	}
	return nil
}

// Edit re-validates and applies new content.
func (m *Message) Edit(content string) error {
	if err := ValidateContent(content); err != nil {
		return err
	}
	m.Content = content
	return nil
}
