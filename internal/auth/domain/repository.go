package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, scope tenantctx.Scope) ([]*User, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	TouchSession(ctx context.Context, id snowflake.ID) error
	RevokeSession(ctx context.Context, id snowflake.ID) error
	RevokeUserSessions(ctx context.Context, userID snowflake.ID) error
}
