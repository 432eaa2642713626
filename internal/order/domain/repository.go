package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListOrdersFilter struct {
	ProjectID snowflake.ID
	Status    Status
	CreatedBy snowflake.ID
	Page      pagination.Pagination
}

// Repository methods that participate in a lifecycle transaction take
// the caller's tx handle so the status change, the history append and
// any counter update commit or roll back together.
type Repository interface {
	Create(ctx context.Context, tx *gorm.DB, order *Order) error
	Save(ctx context.Context, tx *gorm.DB, order *Order) error
	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Order, error)
	List(ctx context.Context, scope tenantctx.Scope, filter ListOrdersFilter) ([]*Order, *pagination.PageInfo, error)

	AddLine(ctx context.Context, tx *gorm.DB, line *OrderLine) error
	SaveLine(ctx context.Context, tx *gorm.DB, line *OrderLine) error
	FindLine(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, lineNumber int) (*OrderLine, error)
	ListLines(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) ([]OrderLine, error)
	CountLines(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (int64, error)
	NextLineNumber(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (int, error)
	DeleteLineAndRenumber(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, lineNumber int) error

	AppendHistory(ctx context.Context, tx *gorm.DB, entry *OrderHistory) error
	ListHistory(ctx context.Context, orderID snowflake.ID) ([]*OrderHistory, error)
}
