package domain

import "time"

type Session struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        string     `gorm:"size:36;index;not null" json:"userId"`
	TokenHash     string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent     string     `gorm:"size:512" json:"userAgent"`
	IP            string     `gorm:"size:64" json:"ip"`
	ExpiresAt     time.Time  `gorm:"index;not null" json:"expiresAt"`
	RevokedAt     *time.Time `gorm:"index" json:"revokedAt,omitempty"`
	RevokedReason *string    `gorm:"size:64" json:"revokedReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsActive reports whether the session is neither revoked nor expired at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
