package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/product/domain"
	"github.com/chantierflow/chantierflow/internal/product/repository"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.New(conn),
	})
}

func adminContext(companyID snowflake.ID) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(7),
		CompanyID: companyID,
		Role:      tenantctx.RoleAdmin,
	})
}

func TestProductLabelFallback(t *testing.T) {
	svc := newTestService(t)

	product, err := svc.CreateProduct(adminContext(snowflake.ID(100)), domain.CreateProductRequest{
		Name: "Ciment",
		Labels: map[string]string{
			"ar": "إسمنت",
			"dr": "ciman",
			"en": "  ",
		},
		Unit: "sac",
	})
	require.NoError(t, err)

	require.Equal(t, "إسمنت", product.Label("ar"))
	require.Equal(t, "ciman", product.Label("dr"))
	// Blank and missing labels fall back to the canonical name.
	require.Equal(t, "Ciment", product.Label("en"))
	require.Equal(t, "Ciment", product.Label("es"))
}

func TestListProductsFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext(snowflake.ID(100))

	_, err := svc.CreateProduct(ctx, domain.CreateProductRequest{Name: "Ciment CPJ45", Category: "gros-oeuvre"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, domain.CreateProductRequest{Name: "Fer 12mm", Category: "gros-oeuvre"})
	require.NoError(t, err)
	gone, err := svc.CreateProduct(ctx, domain.CreateProductRequest{Name: "Peinture", Category: "finition"})
	require.NoError(t, err)
	require.NoError(t, svc.ArchiveProduct(ctx, gone.ID))

	products, err := svc.ListProducts(ctx, domain.ListProductsFilter{Category: "gros-oeuvre"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	products, err = svc.ListProducts(ctx, domain.ListProductsFilter{Query: "ciment"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Ciment CPJ45", products[0].Name)

	products, err = svc.ListProducts(ctx, domain.ListProductsFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestProductTenantIsolation(t *testing.T) {
	svc := newTestService(t)

	mine, err := svc.CreateProduct(adminContext(snowflake.ID(100)), domain.CreateProductRequest{Name: "Ciment"})
	require.NoError(t, err)

	_, err = svc.GetProduct(adminContext(snowflake.ID(200)), mine.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
