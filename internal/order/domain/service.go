package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
)

type CreateOrderRequest struct {
	ProjectID       snowflake.ID
	SupplierName    string
	SupplierPhone   string
	SupplierAddress string
	RequestedDate   *time.Time
	Notes           string
}

type LineInput struct {
	ProductID   *snowflake.ID
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	Note        string
}

type UpdateLineRequest struct {
	Description *string
	Quantity    *float64
	Unit        *string
	UnitPrice   *float64
	Note        *string
}

type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, id snowflake.ID) (*Order, error)
	ListOrders(ctx context.Context, filter ListOrdersFilter) ([]*Order, *pagination.PageInfo, error)

	AddLine(ctx context.Context, orderID snowflake.ID, input LineInput) (*OrderLine, error)
	UpdateLine(ctx context.Context, orderID snowflake.ID, lineNumber int, req UpdateLineRequest) (*OrderLine, error)
	DeleteLine(ctx context.Context, orderID snowflake.ID, lineNumber int) error

	Submit(ctx context.Context, orderID snowflake.ID) (*Order, error)
	Validate(ctx context.Context, orderID snowflake.ID) (*Order, error)
	Reject(ctx context.Context, orderID snowflake.ID, reason string) (*Order, error)
	MarkPDFGenerated(ctx context.Context, orderID snowflake.ID, artifactPath string) (*Order, error)
	Share(ctx context.Context, orderID snowflake.ID, channel string) (*Order, error)

	History(ctx context.Context, orderID snowflake.ID) ([]*OrderHistory, error)
}
