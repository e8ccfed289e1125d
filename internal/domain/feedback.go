package domain

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateFeedbackRequest struct {
	Message  string `json:"message"`
	Rating   int    `json:"rating"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (r *CreateFeedbackRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
}

func (r *CreateFeedbackRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return NewValidationError("Feedback message cannot be empty.")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return NewValidationError("Rating must be between 1 and 5.")
	}
	if r.Email != "" && !HasAddressShape(r.Email) {
		return NewValidationError("Invalid email format.")
	}
	return nil
}
