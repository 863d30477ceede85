package service

import (
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
)

// AuthorInfo is the public face of a user next to content. Email is never included.
type AuthorInfo struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

type MessageView struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	ConversationID string     `json:"conversationId"`
	Author         AuthorInfo `json:"author"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ConversationListItem struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Author       AuthorInfo   `json:"author"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	MessageCount int64        `json:"messageCount"`
	LastMessage  *MessageView `json:"lastMessage"`
}

type ConversationDetail struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Author    AuthorInfo    `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []MessageView `json:"messages"`
}

type PublicUserInfo struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

type ConversationContribution struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int64     `json:"messageCount"`
}

type MessageContribution struct {
	ID                string    `json:"id"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	ConversationID    string    `json:"conversationId"`
	ConversationTitle string    `json:"conversationTitle"`
}

type Contributions struct {
	User          PublicUserInfo             `json:"user"`
	Conversations []ConversationContribution `json:"conversations"`
	Messages      []MessageContribution      `json:"messages"`
}

func authorInfo(authorID string, u *domain.User) AuthorInfo {
	if u == nil {
		return AuthorInfo{ID: authorID}
	}
	return AuthorInfo{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func messageView(m *domain.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		Content:        m.Content,
		ConversationID: m.ConversationID,
		Author:         authorInfo(m.AuthorID, m.Author),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
