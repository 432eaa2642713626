package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/product/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
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
	product := &domain.Product{
		ID:           s.genID.Generate(),
		CompanyID:    companyID,
		Name:         name,
		Labels:       labelsMap(req.Labels),
		Unit:         strings.TrimSpace(req.Unit),
		Category:     strings.TrimSpace(req.Category),
		DefaultPrice: req.DefaultPrice,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(product.CompanyID) {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ListProductsFilter) ([]*domain.Product, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, actor.Scope(), filter)
}

func (s *Service) UpdateProduct(ctx context.Context, req domain.UpdateProductRequest) (*domain.Product, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	product, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(product.CompanyID) {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Labels != nil {
		product.Labels = labelsMap(req.Labels)
	}
	if req.Unit != nil {
		product.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.DefaultPrice != nil {
		product.DefaultPrice = *req.DefaultPrice
	}

	product.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) ArchiveProduct(ctx context.Context, id snowflake.ID) error {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(product.CompanyID) {
		return domain.ErrNotFound
	}
	if !product.IsActive {
		return nil
	}

	product.IsActive = false
	product.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, product)
}

func labelsMap(labels map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for lang, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(lang))] = label
	}
	return out
}
