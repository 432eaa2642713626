package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/company/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repo) Update(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM companies WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &company, nil
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, company *domain.Company) error {
	return tx.WithContext(ctx).Save(company).Error
}

func (r *repo) FindBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repo) List(ctx context.Context, scope tenantctx.Scope) ([]*domain.Company, error) {
	var companies []*domain.Company
	stmt := r.db.WithContext(ctx).Model(&domain.Company{})
	stmt = scope.ApplyColumn(stmt, "id")
	if err := stmt.Order("name asc, id asc").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) AllocateOrderReference(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (string, int64, error) {
	var company domain.Company
	err := tx.WithContext(ctx).Raw(
		`SELECT id, settings, bc_counter
		 FROM companies
		 WHERE id = ?
		 FOR UPDATE`,
		companyID,
	).Scan(&company).Error
	if err != nil {
		return "", 0, err
	}
	if company.ID == 0 {
		return "", 0, domain.ErrNotFound
	}

	numbering := company.Numbering()
	seq := company.BCCounter + 1
	if seq < numbering.StartNumber {
		seq = numbering.StartNumber
	}

	result := tx.WithContext(ctx).Exec(
		`UPDATE companies SET bc_counter = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		seq,
		companyID,
	)
	if result.Error != nil {
		return "", 0, result.Error
	}

	reference := numbering.Format(time.Now().UTC(), seq)
	return reference, seq, nil
}

func (r *repo) BumpCounter(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, value int64) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE companies SET bc_counter = ? WHERE id = ? AND bc_counter < ?`,
		value,
		companyID,
		value,
	).Error
}
