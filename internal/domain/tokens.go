package domain

import "time"

const (
	MaxResetAttempts = 5
	ResetCodeLength  = 6
)

type EmailVerificationToken struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (e *EmailVerificationToken) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

func (e *EmailVerificationToken) IsUsed() bool {
	return e.UsedAt != nil
}

func (e *EmailVerificationToken) IsValid() bool {
	return !e.IsExpired() && !e.IsUsed()
}

// PasswordResetRecord is the pending reset for one email. Only the bcrypt hash
// of the mailed code is kept.
type PasswordResetRecord struct {
	UserID    int64     `json:"user_id"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p *PasswordResetRecord) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

func (p *PasswordResetRecord) CanAttempt() bool {
	return p.Attempts < MaxResetAttempts && !p.IsExpired()
}
