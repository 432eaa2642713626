package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/auth/password"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	lexicondomain "github.com/chantierflow/chantierflow/internal/lexicon/domain"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

const (
	superAdminEmail    = "admin@chantierflow.local"
	superAdminPassword = "changeme"

	demoCompanyName = "BTP Atlas"
	demoCompanySlug = "btp-atlas"
	demoPassword    = "demo1234"
)

// EnsureSuperAdmin creates the platform super admin on first startup.
// The account is tenant-less; it exists so a fresh install can be
// configured without touching the database by hand.
func EnsureSuperAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.Where("email = ?", superAdminEmail).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(superAdminPassword)
		if err != nil {
			return err
		}
		return tx.Create(&authdomain.User{
			ID:                node.Generate(),
			Email:             superAdminEmail,
			PasswordHash:      hashed,
			FirstName:         "Super",
			LastName:          "Admin",
			Role:              tenantctx.RoleSuperAdmin,
			PreferredLanguage: "fr",
			IsActive:          true,
		}).Error
	})
}

// EnsureDemoData seeds a demo tenant with users for each role, a
// project, a small product catalog and base dictionary terms.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := ensureDemoCompany(tx, node)
		if err != nil {
			return err
		}
		if err := ensureDemoUsers(tx, node, company.ID); err != nil {
			return err
		}
		if err := ensureDemoProject(tx, node, company.ID); err != nil {
			return err
		}
		if err := ensureDemoProducts(tx, node, company.ID); err != nil {
			return err
		}
		return ensureBaseLexicon(tx, node)
	})
}

func ensureDemoCompany(tx *gorm.DB, node *snowflake.Node) (*companydomain.Company, error) {
	var company companydomain.Company
	err := tx.Where("slug = ?", demoCompanySlug).First(&company).Error
	if err == nil {
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	company = companydomain.Company{
		ID:       node.Generate(),
		Name:     demoCompanyName,
		Slug:     demoCompanySlug,
		City:     "Casablanca",
		ICE:      "001234567000089",
		RC:       "45678",
		BCFooter: "BTP Atlas SARL - Capital 500 000 MAD",
		IsActive: true,
	}
	company.SetNumbering(companydomain.DefaultNumbering())
	if err := tx.Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func ensureDemoUsers(tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	users := []struct {
		email     string
		firstName string
		role      string
	}{
		{"gerant@btp-atlas.ma", "Gerant", tenantctx.RoleAdmin},
		{"conducteur@btp-atlas.ma", "Conducteur", tenantctx.RoleValideur},
		{"chef@btp-atlas.ma", "Chef", tenantctx.RoleDemandeur},
	}

	hashed, err := password.Hash(demoPassword)
	if err != nil {
		return err
	}

	for _, u := range users {
		var existing authdomain.User
		err := tx.Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		cid := companyID
		if err := tx.Create(&authdomain.User{
			ID:                node.Generate(),
			CompanyID:         &cid,
			Email:             u.email,
			PasswordHash:      hashed,
			FirstName:         u.firstName,
			LastName:          "Atlas",
			Role:              u.role,
			PreferredLanguage: "fr",
			IsActive:          true,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDemoProject(tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	var count int64
	if err := tx.Model(&projectdomain.Project{}).Where("company_id = ?", companyID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	start := time.Now().UTC()
	return tx.Create(&projectdomain.Project{
		ID:        node.Generate(),
		CompanyID: companyID,
		Name:      "Residence Al Amal",
		Code:      "AMAL",
		City:      "Casablanca",
		Budget:    2_500_000,
		StartDate: &start,
		IsActive:  true,
	}).Error
}

func ensureDemoProducts(tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	var count int64
	if err := tx.Model(&productdomain.Product{}).Where("company_id = ?", companyID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []productdomain.Product{
		{
			Name:         "Ciment CPJ 45",
			Labels:       datatypes.JSONMap{"ar": "الاسمنت", "dr": "ssima"},
			Unit:         "sac",
			Category:     "liants",
			DefaultPrice: 72,
		},
		{
			Name:         "Sable 0/5",
			Labels:       datatypes.JSONMap{"ar": "الرمل", "dr": "rmla"},
			Unit:         "m3",
			Category:     "granulats",
			DefaultPrice: 180,
		},
		{
			Name:         "Fer a beton 12mm",
			Labels:       datatypes.JSONMap{"ar": "الحديد", "dr": "l7did"},
			Unit:         "barre",
			Category:     "aciers",
			DefaultPrice: 95,
		},
	}
	for i := range products {
		products[i].ID = node.Generate()
		products[i].CompanyID = companyID
		products[i].IsActive = true
		if err := tx.Create(&products[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureBaseLexicon(tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.Model(&lexicondomain.Entry{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	entries := []lexicondomain.Entry{
		{
			Term:         "ciment",
			Translations: datatypes.JSONMap{"fr": "ciment", "ar": "الاسمنت", "dr": "ssima"},
			Aliases:      datatypes.NewJSONSlice([]string{"ssima", "cima"}),
			Category:     "liants",
		},
		{
			Term:         "sable",
			Translations: datatypes.JSONMap{"fr": "sable", "ar": "الرمل", "dr": "rmla"},
			Aliases:      datatypes.NewJSONSlice([]string{"rmla", "remla"}),
			Category:     "granulats",
		},
		{
			Term:         "fer",
			Translations: datatypes.JSONMap{"fr": "fer", "ar": "الحديد", "dr": "l7did"},
			Aliases:      datatypes.NewJSONSlice([]string{"l7did", "hdid"}),
			Category:     "aciers",
		},
		{
			Term:         "brique",
			Translations: datatypes.JSONMap{"fr": "brique", "ar": "الطوب", "dr": "lbrik"},
			Aliases:      datatypes.NewJSONSlice([]string{"lbrik", "brik"}),
			Category:     "maconnerie",
		},
	}
	for i := range entries {
		entries[i].ID = node.Generate()
		entries[i].Validated = true
		if err := tx.Create(&entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
