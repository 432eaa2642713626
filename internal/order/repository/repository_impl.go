package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/order/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	return tx.WithContext(ctx).Omit("Lines", "History").Save(order).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number asc")
		}).
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row so concurrent lifecycle calls
// serialize. Lines are loaded after the lock is held.
func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, domain.ErrNotFound
	}

	lines, err := r.ListLines(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *repo) List(ctx context.Context, scope tenantctx.Scope, filter domain.ListOrdersFilter) ([]*domain.Order, *pagination.PageInfo, error) {
	limit := filter.Page.PageSize
	if limit < 1 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	var orders []*domain.Order
	stmt := r.db.WithContext(ctx).Model(&domain.Order{})
	stmt = scope.Apply(stmt)
	if filter.ProjectID != 0 {
		stmt = stmt.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != 0 {
		stmt = stmt.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.Page.PageToken)
		if err != nil {
			return nil, nil, err
		}
		// Snowflake ids are time ordered, a single id cursor is enough.
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, pagination.ErrInvalidToken
		}
		stmt = stmt.Where("id < ?", afterID)
	}
	err := stmt.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number asc")
		}).
		Order("id desc").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(orders, limit, func(o *domain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: o.ID.String()})
		return token
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, pageInfo, nil
}

func (r *repo) AddLine(ctx context.Context, tx *gorm.DB, line *domain.OrderLine) error {
	return tx.WithContext(ctx).Create(line).Error
}

func (r *repo) SaveLine(ctx context.Context, tx *gorm.DB, line *domain.OrderLine) error {
	return tx.WithContext(ctx).Save(line).Error
}

func (r *repo) FindLine(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, lineNumber int) (*domain.OrderLine, error) {
	var line domain.OrderLine
	err := tx.WithContext(ctx).
		Where("order_id = ? AND line_number = ?", orderID, lineNumber).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repo) ListLines(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_number asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) CountLines(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.OrderLine{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

func (r *repo) NextLineNumber(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (int, error) {
	var next int
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(line_number), 0) + 1
		 FROM order_lines
		 WHERE order_id = ?`,
		orderID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// DeleteLineAndRenumber removes one line and closes the gap in the
// same transaction, keeping line numbers dense 1..N.
func (r *repo) DeleteLineAndRenumber(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, lineNumber int) error {
	result := tx.WithContext(ctx).
		Where("order_id = ? AND line_number = ?", orderID, lineNumber).
		Delete(&domain.OrderLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrLineNotFound
	}

	return tx.WithContext(ctx).Exec(
		`UPDATE order_lines
		 SET line_number = line_number - 1
		 WHERE order_id = ? AND line_number > ?`,
		orderID,
		lineNumber,
	).Error
}

func (r *repo) AppendHistory(ctx context.Context, tx *gorm.DB, entry *domain.OrderHistory) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListHistory(ctx context.Context, orderID snowflake.ID) ([]*domain.OrderHistory, error) {
	var entries []*domain.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
