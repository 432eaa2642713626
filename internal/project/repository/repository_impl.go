package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repo) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, scope tenantctx.Scope, filter domain.ListProjectsFilter) ([]*domain.Project, error) {
	var projects []*domain.Project
	stmt := r.db.WithContext(ctx).Model(&domain.Project{})
	stmt = scope.Apply(stmt)
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("name asc, id asc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
