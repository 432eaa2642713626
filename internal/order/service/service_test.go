package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	companyrepo "github.com/chantierflow/chantierflow/internal/company/repository"
	"github.com/chantierflow/chantierflow/internal/order/domain"
	"github.com/chantierflow/chantierflow/internal/order/repository"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	productrepo "github.com/chantierflow/chantierflow/internal/product/repository"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	projectrepo "github.com/chantierflow/chantierflow/internal/project/repository"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type testEnv struct {
	svc         domain.Service
	db          *gorm.DB
	node        *snowflake.Node
	companyRepo companydomain.Repository
	projectRepo projectdomain.Repository
	productRepo productdomain.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&companydomain.Company{},
		&projectdomain.Project{},
		&productdomain.Product{},
		&domain.Order{},
		&domain.OrderLine{},
		&domain.OrderHistory{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	env := &testEnv{
		db:          conn,
		node:        node,
		companyRepo: companyrepo.New(conn),
		projectRepo: projectrepo.New(conn),
		productRepo: productrepo.New(conn),
	}
	env.svc = New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.New(conn),
		CompanyRepo: env.companyRepo,
		ProjectRepo: env.projectRepo,
		ProductRepo: env.productRepo,
	})
	return env
}

func (e *testEnv) newCompany(t *testing.T) *companydomain.Company {
	t.Helper()

	now := time.Now().UTC()
	company := &companydomain.Company{
		ID:        e.node.Generate(),
		Name:      "Atlas BTP",
		Slug:      "atlas-btp-" + e.node.Generate().String(),
		Settings:  datatypes.JSONMap{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	company.SetNumbering(companydomain.DefaultNumbering())
	require.NoError(t, e.companyRepo.Create(context.Background(), company))
	return company
}

func (e *testEnv) newProject(t *testing.T, companyID snowflake.ID) *projectdomain.Project {
	t.Helper()

	now := time.Now().UTC()
	project := &projectdomain.Project{
		ID:        e.node.Generate(),
		CompanyID: companyID,
		Name:      "Villa Anfa",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.projectRepo.Create(context.Background(), project))
	return project
}

func actorContext(userID int64, companyID snowflake.ID, role string) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(userID),
		CompanyID: companyID,
		Role:      role,
	})
}

func TestOrderLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	demandeur := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	valideur := actorContext(20, company.ID, tenantctx.RoleValideur)

	order, err := env.svc.CreateOrder(demandeur, domain.CreateOrderRequest{
		ProjectID:    project.ID,
		SupplierName: "Droguerie Jamal",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, order.Status)
	require.NotEmpty(t, order.Reference)

	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{
		Description: "Ciment CPJ45",
		Quantity:    10,
		Unit:        "sac",
		UnitPrice:   2.50,
	})
	require.NoError(t, err)

	order, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, order.Status)

	order, err = env.svc.Validate(valideur, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusValidated, order.Status)
	require.NotNil(t, order.ValidatedBy)
	require.Equal(t, snowflake.ID(20), *order.ValidatedBy)
	require.NotNil(t, order.ValidatedAt)

	order, err = env.svc.MarkPDFGenerated(valideur, order.ID, "artifacts/bc-test.pdf")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPDFGenerated, order.Status)
	require.Equal(t, "artifacts/bc-test.pdf", order.PDFPath)

	order, err = env.svc.Share(valideur, order.ID, "whatsapp")
	require.NoError(t, err)
	require.Equal(t, domain.StatusShared, order.Status)
	require.Equal(t, "whatsapp", order.ShareChannel)

	final, err := env.svc.GetOrder(demandeur, order.ID)
	require.NoError(t, err)
	require.InDelta(t, 25.0, final.Total(), 0.0001)

	history, err := env.svc.History(demandeur, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	actions := []domain.HistoryAction{
		domain.HistoryCreation,
		domain.HistorySubmission,
		domain.HistoryValidation,
		domain.HistoryPDFGeneration,
		domain.HistoryShare,
	}
	for i, entry := range history {
		require.Equal(t, actions[i], entry.Action)
	}
}

func TestSubmitEmptyOrderFails(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	order, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)

	_, err = env.svc.Submit(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrEmptyOrder)

	// Nothing changed: still a draft with only the creation entry.
	order, err = env.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, order.Status)

	history, err := env.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestRejectReturnsToDraft(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	demandeur := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	valideur := actorContext(20, company.ID, tenantctx.RoleValideur)

	order, err := env.svc.CreateOrder(demandeur, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)
	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{Description: "Fer 12mm", Quantity: 5, UnitPrice: 80})
	require.NoError(t, err)
	_, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)

	// Rejecting with no reason is allowed.
	order, err = env.svc.Reject(valideur, order.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, order.Status)

	history, err := env.svc.History(demandeur, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	rejection := history[2]
	require.Equal(t, domain.HistoryRejection, rejection.Action)
	require.Equal(t, domain.StatusSubmitted, rejection.OldStatus)
	require.Equal(t, domain.StatusDraft, rejection.NewStatus)

	// A rejected order can be fixed and resubmitted.
	_, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)
}

func TestDeleteLineRenumbers(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	order, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)

	for _, description := range []string{"Ciment", "Fer 12mm", "Gravier"} {
		_, err = env.svc.AddLine(ctx, order.ID, domain.LineInput{Description: description, Quantity: 1, UnitPrice: 10})
		require.NoError(t, err)
	}

	require.NoError(t, env.svc.DeleteLine(ctx, order.ID, 2))

	order, err = env.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)
	require.Equal(t, 1, order.Lines[0].LineNumber)
	require.Equal(t, "Ciment", order.Lines[0].Description)
	require.Equal(t, 2, order.Lines[1].LineNumber)
	require.Equal(t, "Gravier", order.Lines[1].Description)

	// The next added line continues the dense sequence.
	line, err := env.svc.AddLine(ctx, order.ID, domain.LineInput{Description: "Sable", Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)
	require.Equal(t, 3, line.LineNumber)
}

func TestConcurrentCreatesGetDistinctReferences(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	const n = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		references = map[string]bool{}
		errs       []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			references[order.Reference] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, references, n)
}

func TestIllegalTransitions(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	demandeur := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	valideur := actorContext(20, company.ID, tenantctx.RoleValideur)

	order, err := env.svc.CreateOrder(demandeur, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)

	_, err = env.svc.Validate(valideur, order.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = env.svc.Share(valideur, order.ID, "whatsapp")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = env.svc.MarkPDFGenerated(valideur, order.ID, "artifacts/x.pdf")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{Description: "Ciment", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	_, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Submit(demandeur, order.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestDemandeurCannotValidate(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	demandeur := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	order, err := env.svc.CreateOrder(demandeur, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)
	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{Description: "Ciment", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	_, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Validate(demandeur, order.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLineEditingLockedAfterValidation(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	demandeur := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	valideur := actorContext(20, company.ID, tenantctx.RoleValideur)

	order, err := env.svc.CreateOrder(demandeur, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)
	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{Description: "Ciment", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	_, err = env.svc.Submit(demandeur, order.ID)
	require.NoError(t, err)

	// A validator may still correct a submitted order.
	_, err = env.svc.AddLine(valideur, order.ID, domain.LineInput{Description: "Sable", Quantity: 2, UnitPrice: 5})
	require.NoError(t, err)
	// The original requester may not.
	_, err = env.svc.AddLine(demandeur, order.ID, domain.LineInput{Description: "Gravier", Quantity: 1, UnitPrice: 7})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Validate(valideur, order.ID)
	require.NoError(t, err)

	_, err = env.svc.AddLine(valideur, order.ID, domain.LineInput{Description: "Gravier", Quantity: 1, UnitPrice: 7})
	require.ErrorIs(t, err, domain.ErrForbidden)
	err = env.svc.DeleteLine(valideur, order.ID, 1)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	companyA := env.newCompany(t)
	projectA := env.newProject(t, companyA.ID)
	companyB := env.newCompany(t)

	userA := actorContext(10, companyA.ID, tenantctx.RoleAdmin)
	userB := actorContext(30, companyB.ID, tenantctx.RoleAdmin)

	order, err := env.svc.CreateOrder(userA, domain.CreateOrderRequest{ProjectID: projectA.ID})
	require.NoError(t, err)

	_, err = env.svc.GetOrder(userB, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Submit(userB, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// B cannot raise an order against A's project either.
	_, err = env.svc.CreateOrder(userB, domain.CreateOrderRequest{ProjectID: projectA.ID})
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	orders, _, err := env.svc.ListOrders(userB, domain.ListOrdersFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)

	super := tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID: snowflake.ID(1),
		Role:   tenantctx.RoleSuperAdmin,
	})
	orders, pageInfo, err := env.svc.ListOrders(super, domain.ListOrdersFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.False(t, pageInfo.HasMore)
}

func TestCreateOrderOnInactiveProject(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	project.IsActive = false
	require.NoError(t, env.projectRepo.Update(context.Background(), project))

	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	_, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
	require.ErrorIs(t, err, domain.ErrProjectInactive)
}

func TestListOrdersPaginates(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)

	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)
	var ids []snowflake.ID
	for i := 0; i < 3; i++ {
		created, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	first, pageInfo, err := env.svc.ListOrders(ctx, domain.ListOrdersFilter{
		Page: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, pageInfo.HasMore)
	// Newest first.
	require.Equal(t, ids[2], first[0].ID)
	require.Equal(t, ids[1], first[1].ID)

	second, pageInfo, err := env.svc.ListOrders(ctx, domain.ListOrdersFilter{
		Page: pagination.Pagination{PageSize: 2, PageToken: pageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.False(t, pageInfo.HasMore)
	require.Equal(t, ids[0], second[0].ID)

	_, _, err = env.svc.ListOrders(ctx, domain.ListOrdersFilter{
		Page: pagination.Pagination{PageToken: "not-a-token"},
	})
	require.ErrorIs(t, err, pagination.ErrInvalidToken)
}

func TestAddLineFromProductSnapshotsLabels(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	now := time.Now().UTC()
	product := &productdomain.Product{
		ID:           env.node.Generate(),
		CompanyID:    company.ID,
		Name:         "Ciment CPJ 45",
		Labels:       datatypes.JSONMap{"fr": "Ciment CPJ 45", "ar": "إسمنت", "dr": "ssima"},
		Unit:         "sac",
		DefaultPrice: 75,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, env.productRepo.Create(context.Background(), product))

	created, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)

	line, err := env.svc.AddLine(ctx, created.ID, domain.LineInput{
		ProductID: &product.ID,
		Quantity:  10,
	})
	require.NoError(t, err)
	require.Equal(t, "Ciment CPJ 45", line.Description)
	require.Equal(t, "sac", line.Unit)
	require.Equal(t, float64(75), line.UnitPrice)
	require.Equal(t, "ssima", line.Translations["dr"])
	require.Equal(t, "إسمنت", line.Translations["ar"])
}

func TestAddLineRejectsForeignProduct(t *testing.T) {
	env := newTestEnv(t)
	company := env.newCompany(t)
	project := env.newProject(t, company.ID)
	ctx := actorContext(10, company.ID, tenantctx.RoleDemandeur)

	other := env.newCompany(t)
	now := time.Now().UTC()
	foreign := &productdomain.Product{
		ID:        env.node.Generate(),
		CompanyID: other.ID,
		Name:      "Gravier 3/8",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.productRepo.Create(context.Background(), foreign))

	created, err := env.svc.CreateOrder(ctx, domain.CreateOrderRequest{ProjectID: project.ID})
	require.NoError(t, err)

	_, err = env.svc.AddLine(ctx, created.ID, domain.LineInput{
		ProductID: &foreign.ID,
		Quantity:  1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidLine)
}
