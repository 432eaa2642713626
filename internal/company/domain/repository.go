package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	FindBySlug(ctx context.Context, slug string) (*Company, error)

	// FindByIDForUpdate locks the company row inside the caller's
	// transaction so numbering changes and reference allocations
	// serialize on it.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Company, error)

	// Save writes the company on the caller's transaction.
	Save(ctx context.Context, tx *gorm.DB, company *Company) error

	List(ctx context.Context, scope tenantctx.Scope) ([]*Company, error)

	// AllocateOrderReference reserves the next purchase order reference
	// for the company inside the caller's transaction. The company row
	// is locked FOR UPDATE so two concurrent allocations serialize and
	// can never hand out the same sequence.
	AllocateOrderReference(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (string, int64, error)

	// BumpCounter raises bc_counter to at least value. Used when the
	// numbering start is moved forward so the next allocation begins
	// at the new start.
	BumpCounter(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, value int64) error
}
