package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateUserRequest struct {
	CompanyID         *snowflake.ID
	Email             string
	Password          string
	FirstName         string
	LastName          string
	Phone             string
	Role              string
	PreferredLanguage string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Token   string
	User    *User
	Session *Session
}

type AuthResult struct {
	User    *User
	Session *Session
}

type UpdateUserRequest struct {
	ID                snowflake.ID
	FirstName         *string
	LastName          *string
	Phone             *string
	Role              *string
	PreferredLanguage *string
	IsActive          *bool
}

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, current, next string) error
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error)
}
