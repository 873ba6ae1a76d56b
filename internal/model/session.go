package model

import "time"

// Session binds a browser client to an authenticated account.
// Token is the secret cookie value; ID is a public handle that is safe to log.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	AccountID int64     `json:"account_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Principal is the authenticated identity carried in the request context.
type Principal struct {
	AccountID int64
	Email     string
	SessionID string
}

// Principal returns the identity bound to this session.
func (s *Session) Principal() *Principal {
	return &Principal{
		AccountID: s.AccountID,
		Email:     s.Email,
		SessionID: s.ID,
	}
}
