package entity

import (
	"time"
)

// UserRole determines what a user can do on the platform.
type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleMentor  UserRole = "mentor"
	UserRoleAdmin   UserRole = "admin"
)

// Valid reports whether the role is one of the defined values.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleMentor, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a platform account. Accounts start unverified and
// become usable once the e-mail verification code is confirmed.
type User struct {
	ID            int        `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for the User entity
func (User) TableName() string {
	return "users"
}

// RegisterRequest represents the request to create a new account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Role     string `json:"role" validate:"omitempty,oneof=student mentor"`
}

// VerifyEmailRequest represents the request to confirm a verification code
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,min=4,max=10"`
}

// ResendCodeRequest represents the request to re-issue a verification code
type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest represents the credentials login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request to start a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request to finish a password reset
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,numeric,min=4,max=10"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// UpdateUserStatusRequest represents the admin request to (de)activate an account
type UpdateUserStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// UserResponse represents the user response
type UserResponse struct {
	ID            int        `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Role          UserRole   `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	IsActive      bool       `json:"is_active"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AuthResponse represents the authentication response with JWT token
type AuthResponse struct {
	Token     string       `json:"token"`
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
	Message   string       `json:"message"`
}

// RegisterResponse represents the response to a registration or resend request
type RegisterResponse struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse represents a generic informational response
type MessageResponse struct {
	Message string `json:"message"`
}

// UsersListResponse represents the paginated list of users
type UsersListResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// ToResponse converts the user to its API representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
