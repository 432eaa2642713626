package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/company/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || actor.Role != tenantctx.RoleSuperAdmin {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	companySlug := strings.TrimSpace(req.Slug)
	if companySlug == "" {
		companySlug = name
	}
	companySlug = slug.Make(companySlug)

	if _, err := s.repo.FindBySlug(ctx, companySlug); err == nil {
		return nil, domain.ErrSlugTaken
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	company := &domain.Company{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      companySlug,
		Address:   strings.TrimSpace(req.Address),
		City:      strings.TrimSpace(req.City),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		ICE:       strings.TrimSpace(req.ICE),
		RC:        strings.TrimSpace(req.RC),
		Patente:   strings.TrimSpace(req.Patente),
		IFNumber:  strings.TrimSpace(req.IFNumber),
		BCFooter:  strings.TrimSpace(req.BCFooter),
		Settings:  datatypes.JSONMap{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	company.SetNumbering(domain.DefaultNumbering())

	if err := s.repo.Create(ctx, company); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("slug", company.Slug),
	)
	return company, nil
}

func (s *Service) GetCompany(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(company.ID) {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

func (s *Service) GetCompanyBySlug(ctx context.Context, companySlug string) (*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	company, err := s.repo.FindBySlug(ctx, strings.TrimSpace(companySlug))
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(company.ID) {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

func (s *Service) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, actor.Scope())
}

func (s *Service) UpdateCompany(ctx context.Context, req domain.UpdateCompanyRequest) (*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	company, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(company.ID) {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		company.Name = name
	}
	if req.Address != nil {
		company.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		company.City = strings.TrimSpace(*req.City)
	}
	if req.Phone != nil {
		company.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		company.Email = strings.TrimSpace(*req.Email)
	}
	if req.ICE != nil {
		company.ICE = strings.TrimSpace(*req.ICE)
	}
	if req.RC != nil {
		company.RC = strings.TrimSpace(*req.RC)
	}
	if req.Patente != nil {
		company.Patente = strings.TrimSpace(*req.Patente)
	}
	if req.IFNumber != nil {
		company.IFNumber = strings.TrimSpace(*req.IFNumber)
	}
	if req.BCFooter != nil {
		company.BCFooter = strings.TrimSpace(*req.BCFooter)
	}
	if req.LogoPath != nil {
		company.LogoPath = strings.TrimSpace(*req.LogoPath)
	}
	if req.IsActive != nil {
		// Only the platform operator can suspend a tenant.
		if actor.Role != tenantctx.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		company.IsActive = *req.IsActive
	}

	company.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *Service) UpdateNumbering(ctx context.Context, id snowflake.ID, numbering domain.Numbering) (*domain.Company, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := numbering.Validate(); err != nil {
		return nil, err
	}

	var company *domain.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(found.ID) {
			return domain.ErrNotFound
		}

		found.SetNumbering(numbering)
		found.UpdatedAt = time.Now().UTC()
		if err := s.repo.Save(ctx, tx, found); err != nil {
			return err
		}

		// Moving the start forward drags the counter with it so the
		// next reference is exactly start_number. Moving it back never
		// lowers the counter; issued references are not reused.
		if numbering.StartNumber-1 > found.BCCounter {
			if err := s.repo.BumpCounter(ctx, tx, found.ID, numbering.StartNumber-1); err != nil {
				return err
			}
			found.BCCounter = numbering.StartNumber - 1
		}

		company = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}
