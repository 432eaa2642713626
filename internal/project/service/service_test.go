package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/project/repository"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Project{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.New(conn),
	})
}

func actorContext(role string, companyID snowflake.ID) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(7),
		CompanyID: companyID,
		Role:      role,
	})
}

func TestCreateProjectForcesTenant(t *testing.T) {
	svc := newTestService(t)

	project, err := svc.CreateProject(actorContext(tenantctx.RoleAdmin, snowflake.ID(100)), domain.CreateProjectRequest{
		CompanyID: snowflake.ID(999),
		Name:      "Villa Anfa",
	})
	require.NoError(t, err)
	require.Equal(t, snowflake.ID(100), project.CompanyID)
}

func TestCreateProjectDemandeurForbidden(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProject(actorContext(tenantctx.RoleDemandeur, snowflake.ID(100)), domain.CreateProjectRequest{
		Name: "Villa Anfa",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProjectTenantIsolation(t *testing.T) {
	svc := newTestService(t)

	mine, err := svc.CreateProject(actorContext(tenantctx.RoleAdmin, snowflake.ID(100)), domain.CreateProjectRequest{
		Name: "Villa Anfa",
	})
	require.NoError(t, err)

	// The other tenant cannot see or touch the project; the response
	// does not reveal that it exists at all.
	other := actorContext(tenantctx.RoleAdmin, snowflake.ID(200))
	_, err = svc.GetProject(other, mine.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	name := "Renamed"
	_, err = svc.UpdateProject(other, domain.UpdateProjectRequest{ID: mine.ID, Name: &name})
	require.ErrorIs(t, err, domain.ErrNotFound)

	projects, err := svc.ListProjects(other, domain.ListProjectsFilter{})
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestArchiveProjectFiltersList(t *testing.T) {
	svc := newTestService(t)
	ctx := actorContext(tenantctx.RoleAdmin, snowflake.ID(100))

	keep, err := svc.CreateProject(ctx, domain.CreateProjectRequest{Name: "Villa Anfa"})
	require.NoError(t, err)
	gone, err := svc.CreateProject(ctx, domain.CreateProjectRequest{Name: "Tour Maarif"})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveProject(ctx, gone.ID))
	// Archiving twice is a no-op.
	require.NoError(t, svc.ArchiveProject(ctx, gone.ID))

	active, err := svc.ListProjects(ctx, domain.ListProjectsFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, keep.ID, active[0].ID)

	all, err := svc.ListProjects(ctx, domain.ListProjectsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
