package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	"github.com/chantierflow/chantierflow/internal/order/domain"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	CompanyRepo companydomain.Repository
	ProjectRepo projectdomain.Repository
	ProductRepo productdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	companyRepo companydomain.Repository
	projectRepo projectdomain.Repository
	productRepo productdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		companyRepo: p.CompanyRepo,
		projectRepo: p.ProjectRepo,
		productRepo: p.ProductRepo,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.CanCreateOrders() {
		return nil, domain.ErrForbidden
	}

	project, err := s.projectRepo.FindByID(ctx, req.ProjectID)
	if err != nil {
		if err == projectdomain.ErrNotFound {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	// Cross-tenant ids read as absent, never as forbidden.
	if !actor.CanAccess(project.CompanyID) {
		return nil, domain.ErrProjectNotFound
	}
	if !project.IsActive {
		return nil, domain.ErrProjectInactive
	}

	var order *domain.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Locks the company row; concurrent creates for one tenant
		// serialize here and each get a distinct reference.
		reference, _, err := s.companyRepo.AllocateOrderReference(ctx, tx, project.CompanyID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		order = &domain.Order{
			ID:              s.genID.Generate(),
			CompanyID:       project.CompanyID,
			ProjectID:       project.ID,
			Reference:       reference,
			Status:          domain.StatusDraft,
			SupplierName:    strings.TrimSpace(req.SupplierName),
			SupplierPhone:   strings.TrimSpace(req.SupplierPhone),
			SupplierAddress: strings.TrimSpace(req.SupplierAddress),
			RequestedDate:   req.RequestedDate,
			Notes:           strings.TrimSpace(req.Notes),
			CreatedBy:       actor.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}

		return s.repo.AppendHistory(ctx, tx, &domain.OrderHistory{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			Action:    domain.HistoryCreation,
			NewStatus: domain.StatusDraft,
			ActorID:   actor.UserID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("reference", order.Reference),
		zap.String("company_id", order.CompanyID.String()),
	)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.CompanyID) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter domain.ListOrdersFilter) ([]*domain.Order, *pagination.PageInfo, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, actor.Scope(), filter)
}

func (s *Service) AddLine(ctx context.Context, orderID snowflake.ID, input domain.LineInput) (*domain.OrderLine, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var line *domain.OrderLine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if !order.CanEdit(actor) {
			return domain.ErrForbidden
		}

		description := strings.TrimSpace(input.Description)
		unit := strings.TrimSpace(input.Unit)
		unitPrice := input.UnitPrice
		var translations datatypes.JSONMap

		if input.ProductID != nil {
			product, err := s.productRepo.FindByIDTx(ctx, tx, *input.ProductID)
			if err != nil || product.CompanyID != order.CompanyID {
				return domain.ErrInvalidLine
			}
			if description == "" {
				description = product.Name
			}
			if unit == "" {
				unit = product.Unit
			}
			if unitPrice == 0 {
				unitPrice = product.DefaultPrice
			}
			// Snapshot the labels so later catalog edits do not
			// rewrite issued documents.
			if len(product.Labels) > 0 {
				translations = datatypes.JSONMap{}
				for lang, label := range product.Labels {
					translations[lang] = label
				}
			}
		}

		if description == "" || input.Quantity <= 0 || unitPrice < 0 {
			return domain.ErrInvalidLine
		}

		lineNumber, err := s.repo.NextLineNumber(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		line = &domain.OrderLine{
			ID:           s.genID.Generate(),
			OrderID:      order.ID,
			LineNumber:   lineNumber,
			ProductID:    input.ProductID,
			Description:  description,
			Translations: translations,
			Quantity:     input.Quantity,
			Unit:         unit,
			UnitPrice:    unitPrice,
			Note:         strings.TrimSpace(input.Note),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.repo.AddLine(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *Service) UpdateLine(ctx context.Context, orderID snowflake.ID, lineNumber int, req domain.UpdateLineRequest) (*domain.OrderLine, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var line *domain.OrderLine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if !order.CanEdit(actor) {
			return domain.ErrForbidden
		}

		line, err = s.repo.FindLine(ctx, tx, order.ID, lineNumber)
		if err != nil {
			return err
		}

		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			if description == "" {
				return domain.ErrInvalidLine
			}
			line.Description = description
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return domain.ErrInvalidLine
			}
			line.Quantity = *req.Quantity
		}
		if req.Unit != nil {
			line.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.UnitPrice != nil {
			if *req.UnitPrice < 0 {
				return domain.ErrInvalidLine
			}
			line.UnitPrice = *req.UnitPrice
		}
		if req.Note != nil {
			line.Note = strings.TrimSpace(*req.Note)
		}

		line.UpdatedAt = time.Now().UTC()
		return s.repo.SaveLine(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *Service) DeleteLine(ctx context.Context, orderID snowflake.ID, lineNumber int) error {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return domain.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if !order.CanEdit(actor) {
			return domain.ErrForbidden
		}
		return s.repo.DeleteLineAndRenumber(ctx, tx, order.ID, lineNumber)
	})
}

func (s *Service) Submit(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusDraft {
			return domain.ErrSubmitRequiresDraft(order.Status)
		}
		if !order.CanSubmit(actor) {
			return domain.ErrForbidden
		}

		count, err := s.repo.CountLines(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrEmptyOrder
		}

		return s.applyTransition(ctx, tx, order, actor, domain.HistorySubmission, domain.StatusSubmitted, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Validate(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusSubmitted {
			return domain.ErrValidateRequiresSubmitted(order.Status)
		}
		if !order.CanValidate(actor) {
			return domain.ErrForbidden
		}

		now := time.Now().UTC()
		validator := actor.UserID
		order.ValidatedBy = &validator
		order.ValidatedAt = &now
		return s.applyTransition(ctx, tx, order, actor, domain.HistoryValidation, domain.StatusValidated, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Reject(ctx context.Context, orderID snowflake.ID, reason string) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusSubmitted {
			return domain.ErrRejectRequiresSubmitted(order.Status)
		}
		if !order.CanReject(actor) {
			return domain.ErrForbidden
		}

		// An empty reason is allowed; the entry still records who
		// sent the order back.
		details := datatypes.JSONMap{"reason": strings.TrimSpace(reason)}
		return s.applyTransition(ctx, tx, order, actor, domain.HistoryRejection, domain.StatusDraft, details)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) MarkPDFGenerated(ctx context.Context, orderID snowflake.ID, artifactPath string) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusValidated {
			return domain.ErrPDFRequiresValidated(order.Status)
		}
		if !order.CanGeneratePDF(actor) {
			return domain.ErrForbidden
		}

		now := time.Now().UTC()
		order.PDFPath = artifactPath
		order.PDFGeneratedAt = &now
		details := datatypes.JSONMap{"pdf_path": artifactPath}
		return s.applyTransition(ctx, tx, order, actor, domain.HistoryPDFGeneration, domain.StatusPDFGenerated, details)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Share(ctx context.Context, orderID snowflake.ID, channel string) (*domain.Order, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	channel = strings.TrimSpace(channel)

	var order *domain.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrder(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case domain.StatusValidated, domain.StatusPDFGenerated, domain.StatusShared:
		default:
			return domain.ErrShareRequiresValidated(order.Status)
		}
		if !order.CanShare(actor) {
			return domain.ErrForbidden
		}

		now := time.Now().UTC()
		order.ShareChannel = channel
		order.SharedAt = &now
		details := datatypes.JSONMap{"channel": channel}
		return s.applyTransition(ctx, tx, order, actor, domain.HistoryShare, domain.StatusShared, details)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) History(ctx context.Context, orderID snowflake.ID) ([]*domain.OrderHistory, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, orderID)
}

// lockOrder fetches the order FOR UPDATE and applies the tenant
// visibility rule. Cross-tenant ids come back as not found.
func (s *Service) lockOrder(ctx context.Context, tx *gorm.DB, actor tenantctx.Actor, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.CompanyID) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// applyTransition flips the status and appends the matching history
// entry in the caller's transaction, so neither lands without the
// other.
func (s *Service) applyTransition(ctx context.Context, tx *gorm.DB, order *domain.Order, actor tenantctx.Actor, action domain.HistoryAction, next domain.Status, details datatypes.JSONMap) error {
	previous := order.Status
	now := time.Now().UTC()
	order.Status = next
	order.UpdatedAt = now
	if err := s.repo.Save(ctx, tx, order); err != nil {
		return err
	}

	return s.repo.AppendHistory(ctx, tx, &domain.OrderHistory{
		ID:        s.genID.Generate(),
		OrderID:   order.ID,
		Action:    action,
		OldStatus: previous,
		NewStatus: next,
		ActorID:   actor.UserID,
		Details:   details,
		CreatedAt: now,
	})
}
