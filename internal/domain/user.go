package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoleStudent is the only role learners can hold.
const RoleStudent = "STUDENT"

// Student holds the enrollment details every learner carries.
type Student struct {
	Department string `json:"department"`
	Year       int    `json:"year"`
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
	IsVerified   bool   `json:"is_verified"`
	Student
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

type UserInfo struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Active     bool   `json:"active"`
	IsVerified bool   `json:"is_verified"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

type RegisterResponse struct {
	Message   string    `json:"message"`
	User      *UserInfo `json:"user"`
	VerifyURL string    `json:"-"`
}

type PasswordResetCodeRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
}

// Validation methods
func (r *CreateUserRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return NewValidationError("Registration failed: Missing email or password.")
	}
	if r.Year < 0 {
		return NewValidationError("year must not be negative")
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return NewValidationError("Email and password are required.")
	}
	return nil
}

func (r *PasswordResetCodeRequest) Validate() error {
	if !HasAddressShape(r.Email) {
		return NewValidationError("Invalid email format.")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	if r.NewPassword == "" {
		return NewValidationError("Password reset failed: new password cannot be empty.")
	}
	if !HasAddressShape(r.Email) {
		return NewValidationError("Invalid email format.")
	}
	if r.Code == "" {
		return NewValidationError("Password reset failed: reset code is required.")
	}
	return nil
}

func (r *VerifyEmailRequest) Validate() error {
	if !HasAddressShape(r.Email) {
		return NewValidationError("Invalid email format.")
	}
	return nil
}

// HasAddressShape is the minimal address check: the string must contain "@".
func HasAddressShape(email string) bool {
	return strings.Contains(email, "@")
}

// Normalize methods
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *CreateUserRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.Department = strings.TrimSpace(r.Department)
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *PasswordResetCodeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyEmailRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// DisplayInfo renders the one-line summary shown in logs and the profile page.
func DisplayInfo(u *User) string {
	return fmt.Sprintf("User: %s | Department: %s", u.Username, u.Department)
}

func IsActive(u *User) bool {
	return u != nil && u.Active
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		Active:     u.Active,
		IsVerified: u.IsVerified,
		Department: u.Department,
		Year:       u.Year,
	}
}
