package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCompany = "company"
	ObjectProject = "project"
	ObjectProduct = "product"
	ObjectOrder   = "order"
	ObjectUser    = "user"
	ObjectLexicon = "lexicon"
)

const (
	ActionCompanyView   = "company.view"
	ActionCompanyUpdate = "company.update"

	ActionProjectView    = "project.view"
	ActionProjectCreate  = "project.create"
	ActionProjectUpdate  = "project.update"
	ActionProjectArchive = "project.archive"

	ActionProductView    = "product.view"
	ActionProductCreate  = "product.create"
	ActionProductUpdate  = "product.update"
	ActionProductArchive = "product.archive"

	ActionOrderView     = "order.view"
	ActionOrderCreate   = "order.create"
	ActionOrderEdit     = "order.edit"
	ActionOrderSubmit   = "order.submit"
	ActionOrderValidate = "order.validate"
	ActionOrderReject   = "order.reject"
	ActionOrderPDF      = "order.pdf"
	ActionOrderShare    = "order.share"

	ActionUserView   = "user.view"
	ActionUserCreate = "user.create"
	ActionUserUpdate = "user.update"

	ActionLexiconView    = "lexicon.view"
	ActionLexiconSuggest = "lexicon.suggest"
	ActionLexiconReview  = "lexicon.review"
	ActionLexiconManage  = "lexicon.manage"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor tenantctx.Actor, companyID snowflake.ID, object string, action string) error {
	if actor.UserID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	if !actor.CanAccess(companyID) {
		return ErrForbidden
	}

	subject := fmt.Sprintf("user:%s", actor.UserID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(strings.TrimSpace(actor.Role)))
	domain := fmt.Sprintf("company:%s", companyID.String())

	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps the casbin grouping table in sync with the role
// stored on the user row. The user row is the source of truth; a stale
// grouping from a past role is dropped before the fresh one is added.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	demandeur := [][]string{
		{ObjectCompany, ActionCompanyView},
		{ObjectProject, ActionProjectView},
		{ObjectProduct, ActionProductView},
		{ObjectOrder, ActionOrderView},
		{ObjectOrder, ActionOrderCreate},
		{ObjectOrder, ActionOrderEdit},
		{ObjectOrder, ActionOrderSubmit},
		{ObjectLexicon, ActionLexiconView},
		{ObjectLexicon, ActionLexiconSuggest},
	}

	valideur := append([][]string{
		{ObjectOrder, ActionOrderValidate},
		{ObjectOrder, ActionOrderReject},
		{ObjectOrder, ActionOrderPDF},
		{ObjectOrder, ActionOrderShare},
	}, demandeur...)

	admin := append([][]string{
		{ObjectCompany, ActionCompanyUpdate},
		{ObjectProject, ActionProjectCreate},
		{ObjectProject, ActionProjectUpdate},
		{ObjectProject, ActionProjectArchive},
		{ObjectProduct, ActionProductCreate},
		{ObjectProduct, ActionProductUpdate},
		{ObjectProduct, ActionProductArchive},
		{ObjectUser, ActionUserView},
		{ObjectUser, ActionUserCreate},
		{ObjectUser, ActionUserUpdate},
		{ObjectLexicon, ActionLexiconReview},
		{ObjectLexicon, ActionLexiconManage},
	}, valideur...)

	byRole := map[string][][]string{
		"role:demandeur":   demandeur,
		"role:valideur":    valideur,
		"role:admin":       admin,
		"role:super_admin": admin,
	}

	for role, grants := range byRole {
		for _, grant := range grants {
			if _, err := enforcer.AddPolicy(role, grant[0], grant[1]); err != nil {
				return err
			}
		}
	}
	return nil
}
