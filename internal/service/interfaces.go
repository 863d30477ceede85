package service

import "context"

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	SignIn(ctx context.Context, in SignInInput) (*SignInResult, error)
	SignOut(ctx context.Context, userID string) (*SignOutResult, error)
}

// SessionManager issues and resolves opaque session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID, userAgent, ip string) (*IssuedSession, error)
	Resolve(ctx context.Context, token string) (Principal, bool, error)
	RevokeAll(ctx context.Context, userID, reason string) (int64, error)
	ListActive(ctx context.Context, userID string) ([]SessionView, error)
}

type ConversationServiceInterface interface {
	Create(ctx context.Context, authorID, title, content string) (string, error)
	UpdateTitle(ctx context.Context, requesterID, conversationID, title string) error
	Delete(ctx context.Context, requesterID, conversationID string) error
	List(ctx context.Context) ([]ConversationListItem, error)
	Get(ctx context.Context, conversationID string) (*ConversationDetail, error)
}

type MessageServiceInterface interface {
	Create(ctx context.Context, authorID, conversationID, content string) (string, error)
	Update(ctx context.Context, requesterID, messageID, content string) error
	Delete(ctx context.Context, requesterID, messageID string) error
	Get(ctx context.Context, messageID string) (*MessageView, error)
}

type UserServiceInterface interface {
	Contributions(ctx context.Context, userID string) (*Contributions, error)
}
