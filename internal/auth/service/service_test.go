package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/auth/repository"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo, sessions := repository.New(conn)
	return New(Params{
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repo,
		SessionRepo: sessions,
	})
}

func adminContext(companyID snowflake.ID) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(42),
		CompanyID: companyID,
		Role:      tenantctx.RoleAdmin,
	})
}

func superAdminContext() context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID: snowflake.ID(1),
		Role:   tenantctx.RoleSuperAdmin,
	})
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc := newTestService(t)

	ctx := tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(7),
		CompanyID: snowflake.ID(100),
		Role:      tenantctx.RoleDemandeur,
	})

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateUserForcesTenant(t *testing.T) {
	svc := newTestService(t)

	other := snowflake.ID(999)
	user, err := svc.CreateUser(adminContext(snowflake.ID(100)), domain.CreateUserRequest{
		CompanyID: &other,
		Email:     "worker@chantier.ma",
		Password:  "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotNil(t, user.CompanyID)
	require.Equal(t, snowflake.ID(100), *user.CompanyID)
	require.Equal(t, tenantctx.RoleDemandeur, user.Role)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext(snowflake.ID(100))

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "Worker@chantier.MA",
		Password: "correct-horse-battery",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateUser(adminContext(snowflake.ID(100)), domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "not-the-password",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateUser(adminContext(snowflake.ID(100)), domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
		Role:     tenantctx.RoleValideur,
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.WithinDuration(t, time.Now().Add(sessionTTL), result.Session.ExpiresAt, time.Minute)

	auth, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, created.ID, auth.User.ID)
	require.Equal(t, tenantctx.RoleValideur, auth.User.Role)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateUser(adminContext(snowflake.ID(100)), domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Token))

	_, err = svc.Authenticate(context.Background(), result.Token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestDisabledUserCannotLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext(snowflake.ID(100))

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateUser(ctx, domain.UpdateUserRequest{ID: user.ID, IsActive: &inactive})
	require.NoError(t, err)

	// Existing sessions die with the account.
	_, err = svc.Authenticate(context.Background(), result.Token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.ErrorIs(t, err, domain.ErrUserDisabled)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.CreateUser(adminContext(snowflake.ID(100)), domain.CreateUserRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "wrong", "new-long-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), user.ID, "correct-horse-battery", "new-long-password")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), result.Token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "worker@chantier.ma",
		Password: "new-long-password",
	})
	require.NoError(t, err)
}

func TestListUsersScopedToTenant(t *testing.T) {
	svc := newTestService(t)

	companyA := snowflake.ID(100)
	companyB := snowflake.ID(200)

	_, err := svc.CreateUser(superAdminContext(), domain.CreateUserRequest{
		CompanyID: &companyA,
		Email:     "a@chantier.ma",
		Password:  "correct-horse-battery",
	})
	require.NoError(t, err)
	_, err = svc.CreateUser(superAdminContext(), domain.CreateUserRequest{
		CompanyID: &companyB,
		Email:     "b@chantier.ma",
		Password:  "correct-horse-battery",
	})
	require.NoError(t, err)

	users, err := svc.ListUsers(adminContext(companyA))
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "a@chantier.ma", users[0].Email)

	users, err = svc.ListUsers(superAdminContext())
	require.NoError(t, err)
	require.Len(t, users, 2)
}
