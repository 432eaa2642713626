package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	companyID := req.CompanyID
	if actor.Role != tenantctx.RoleSuperAdmin {
		companyID = actor.CompanyID
	}
	if companyID == 0 {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:           s.genID.Generate(),
		CompanyID:    companyID,
		Name:         name,
		Code:         strings.TrimSpace(req.Code),
		Description:  strings.TrimSpace(req.Description),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Budget:       req.Budget,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(project.CompanyID) {
		return nil, domain.ErrNotFound
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, filter domain.ListProjectsFilter) ([]*domain.Project, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, actor.Scope(), filter)
}

func (s *Service) UpdateProject(ctx context.Context, req domain.UpdateProjectRequest) (*domain.Project, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	project, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(project.CompanyID) {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		project.Name = name
	}
	if req.Code != nil {
		project.Code = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Address != nil {
		project.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		project.City = strings.TrimSpace(*req.City)
	}
	if req.ContactName != nil {
		project.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.ContactPhone != nil {
		project.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.Latitude != nil {
		project.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		project.Longitude = req.Longitude
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}

	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) ArchiveProject(ctx context.Context, id snowflake.ID) error {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(project.CompanyID) {
		return domain.ErrNotFound
	}
	if !project.IsActive {
		return nil
	}

	project.IsActive = false
	project.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, project)
}
