package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/lexicon/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreateEntry(ctx context.Context, entry *domain.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repo) UpdateEntry(ctx context.Context, entry *domain.Entry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repo) DeleteEntry(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Entry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *repo) FindEntry(ctx context.Context, id snowflake.ID) (*domain.Entry, error) {
	var entry domain.Entry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repo) ListEntries(ctx context.Context, filter domain.ListEntriesFilter) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := r.db.WithContext(ctx).Model(&domain.Entry{})
	if filter.ValidatedOnly {
		stmt = stmt.Where("validated = ?", true)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if err := stmt.Order("term asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) IncrementUsage(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *repo) CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error {
	return r.db.WithContext(ctx).Create(suggestion).Error
}

func (r *repo) UpdateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error {
	return r.db.WithContext(ctx).Save(suggestion).Error
}

func (r *repo) FindSuggestion(ctx context.Context, id snowflake.ID) (*domain.Suggestion, error) {
	var suggestion domain.Suggestion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&suggestion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSuggestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *repo) ListSuggestions(ctx context.Context, scope tenantctx.Scope, status domain.SuggestionStatus) ([]*domain.Suggestion, error) {
	var suggestions []*domain.Suggestion
	stmt := r.db.WithContext(ctx).Model(&domain.Suggestion{})
	stmt = scope.Apply(stmt)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("created_at asc, id asc").Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}
