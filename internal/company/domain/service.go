package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateCompanyRequest struct {
	Name     string
	Slug     string
	Address  string
	City     string
	Phone    string
	Email    string
	ICE      string
	RC       string
	Patente  string
	IFNumber string
	BCFooter string
}

type UpdateCompanyRequest struct {
	ID       snowflake.ID
	Name     *string
	Address  *string
	City     *string
	Phone    *string
	Email    *string
	ICE      *string
	RC       *string
	Patente  *string
	IFNumber *string
	BCFooter *string
	LogoPath *string
	IsActive *bool
}

type Service interface {
	CreateCompany(ctx context.Context, req CreateCompanyRequest) (*Company, error)
	GetCompany(ctx context.Context, id snowflake.ID) (*Company, error)
	GetCompanyBySlug(ctx context.Context, slug string) (*Company, error)
	ListCompanies(ctx context.Context) ([]*Company, error)
	UpdateCompany(ctx context.Context, req UpdateCompanyRequest) (*Company, error)
	UpdateNumbering(ctx context.Context, id snowflake.ID, numbering Numbering) (*Company, error)
}
