package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/product/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repo) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) FindByIDTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := tx.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) List(ctx context.Context, scope tenantctx.Scope, filter domain.ListProductsFilter) ([]*domain.Product, error) {
	var products []*domain.Product
	stmt := r.db.WithContext(ctx).Model(&domain.Product{})
	stmt = scope.Apply(stmt)
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if err := stmt.Order("name asc, id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
