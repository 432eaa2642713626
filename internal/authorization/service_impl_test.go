package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)

	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestDemandeurCannotValidate(t *testing.T) {
	svc := newTestService(t)

	actor := tenantctx.Actor{
		UserID:    snowflake.ID(1),
		CompanyID: snowflake.ID(100),
		Role:      tenantctx.RoleDemandeur,
	}

	err := svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderCreate)
	require.NoError(t, err)

	err = svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderValidate)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestValideurCanValidateButNotManageUsers(t *testing.T) {
	svc := newTestService(t)

	actor := tenantctx.Actor{
		UserID:    snowflake.ID(2),
		CompanyID: snowflake.ID(100),
		Role:      tenantctx.RoleValideur,
	}

	err := svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderValidate)
	require.NoError(t, err)

	err = svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectUser, ActionUserCreate)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCrossTenantDenied(t *testing.T) {
	svc := newTestService(t)

	actor := tenantctx.Actor{
		UserID:    snowflake.ID(3),
		CompanyID: snowflake.ID(100),
		Role:      tenantctx.RoleAdmin,
	}

	err := svc.Authorize(context.Background(), actor, snowflake.ID(200), ObjectOrder, ActionOrderView)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSuperAdminCrossesTenants(t *testing.T) {
	svc := newTestService(t)

	actor := tenantctx.Actor{
		UserID: snowflake.ID(4),
		Role:   tenantctx.RoleSuperAdmin,
	}

	err := svc.Authorize(context.Background(), actor, snowflake.ID(100), ObjectUser, ActionUserCreate)
	require.NoError(t, err)

	err = svc.Authorize(context.Background(), actor, snowflake.ID(200), ObjectOrder, ActionOrderValidate)
	require.NoError(t, err)
}

func TestRoleChangeReplacesGrouping(t *testing.T) {
	svc := newTestService(t)

	actor := tenantctx.Actor{
		UserID:    snowflake.ID(5),
		CompanyID: snowflake.ID(100),
		Role:      tenantctx.RoleDemandeur,
	}
	err := svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderValidate)
	require.ErrorIs(t, err, ErrForbidden)

	actor.Role = tenantctx.RoleValideur
	err = svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderValidate)
	require.NoError(t, err)

	actor.Role = tenantctx.RoleDemandeur
	err = svc.Authorize(context.Background(), actor, actor.CompanyID, ObjectOrder, ActionOrderValidate)
	require.ErrorIs(t, err, ErrForbidden)
}
