package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleMedic        UserRole = "medic"
	UserRoleReceptionist UserRole = "receptionist"
	UserRoleClient       UserRole = "client"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

// User represents a system user: clinic staff or pet-owning client.
type User struct {
	Base
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	DNI              string     `json:"dni" db:"dni"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	BirthDate        string     `json:"birth_date" db:"birth_date"`
	Phone            *string    `json:"phone" db:"phone"`
	Address          *string    `json:"address" db:"address"`
	Role             UserRole   `json:"role" db:"role"`
	Status           UserStatus `json:"status" db:"status"`
	DataConsent      bool       `json:"data_consent" db:"data_consent"`
	AcceptedPolicies bool       `json:"accepted_policies" db:"accepted_policies"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsStaff reports whether the user holds a clinic-side role.
func (u *User) IsStaff() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleMedic || u.Role == UserRoleReceptionist
}

type RegisterRequest struct {
	FirstName        string  `json:"first_name" binding:"required"`
	LastName         string  `json:"last_name" binding:"required"`
	DNI              string  `json:"dni" binding:"required,len=8,numeric"`
	Email            string  `json:"email" binding:"required,email"`
	Password         string  `json:"password" binding:"required,min=8"`
	BirthDate        string  `json:"birth_date" binding:"required"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	DataConsent      bool    `json:"data_consent"`
	AcceptedPolicies bool    `json:"accepted_policies"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   UserRole  `json:"role"`
}

type UpdateUserRoleRequest struct {
	Role UserRole `json:"role" binding:"required,oneof=admin medic receptionist client"`
}

type UpdateUserStatusRequest struct {
	Status UserStatus `json:"status" binding:"required,oneof=active inactive"`
}
