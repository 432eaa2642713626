package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is a catalog item a company orders for its sites. Name is
// the canonical French label; Labels carries the other languages the
// crews actually use.
type Product struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID    snowflake.ID      `gorm:"index;not null" json:"company_id"`
	Name         string            `gorm:"not null" json:"name"`
	Labels       datatypes.JSONMap `gorm:"type:jsonb" json:"labels,omitempty"`
	Unit         string            `json:"unit,omitempty"`
	Category     string            `json:"category,omitempty"`
	DefaultPrice float64           `json:"default_price,omitempty"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Label returns the product name in the requested language, falling
// back to the canonical French name.
func (p *Product) Label(lang string) string {
	if v, ok := p.Labels[lang].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return p.Name
}

var (
	ErrNotFound    = errors.New("product_not_found")
	ErrInvalidName = errors.New("invalid_name")
	ErrForbidden   = errors.New("forbidden")
)

type CreateProductRequest struct {
	CompanyID    snowflake.ID
	Name         string
	Labels       map[string]string
	Unit         string
	Category     string
	DefaultPrice float64
}

type UpdateProductRequest struct {
	ID           snowflake.ID
	Name         *string
	Labels       map[string]string
	Unit         *string
	Category     *string
	DefaultPrice *float64
}

type ListProductsFilter struct {
	ActiveOnly bool
	Category   string
	Query      string
}

type Repository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)

	// FindByIDTx reads the product on the caller's transaction handle.
	FindByIDTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Product, error)

	List(ctx context.Context, scope tenantctx.Scope, filter ListProductsFilter) ([]*Product, error)
}

type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, filter ListProductsFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (*Product, error)
	ArchiveProduct(ctx context.Context, id snowflake.ID) error
}
