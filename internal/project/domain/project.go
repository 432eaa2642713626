package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

// Project is a construction site orders are raised against.
type Project struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID    snowflake.ID `gorm:"index;not null" json:"company_id"`
	Name         string       `gorm:"not null" json:"name"`
	Code         string       `json:"code,omitempty"`
	Description  string       `json:"description,omitempty"`
	Address      string       `json:"address,omitempty"`
	City         string       `json:"city,omitempty"`
	ContactName  string       `json:"contact_name,omitempty"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	Budget       float64      `json:"budget,omitempty"`
	StartDate    *time.Time   `json:"start_date,omitempty"`
	EndDate      *time.Time   `json:"end_date,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

var (
	ErrNotFound    = errors.New("project_not_found")
	ErrInvalidName = errors.New("invalid_name")
	ErrForbidden   = errors.New("forbidden")
)

type CreateProjectRequest struct {
	CompanyID    snowflake.ID
	Name         string
	Code         string
	Description  string
	Address      string
	City         string
	ContactName  string
	ContactPhone string
	Latitude     *float64
	Longitude    *float64
	Budget       float64
	StartDate    *time.Time
	EndDate      *time.Time
}

type UpdateProjectRequest struct {
	ID           snowflake.ID
	Name         *string
	Code         *string
	Description  *string
	Address      *string
	City         *string
	ContactName  *string
	ContactPhone *string
	Latitude     *float64
	Longitude    *float64
	Budget       *float64
	StartDate    *time.Time
	EndDate      *time.Time
}

type ListProjectsFilter struct {
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id snowflake.ID) (*Project, error)
	List(ctx context.Context, scope tenantctx.Scope, filter ListProjectsFilter) ([]*Project, error)
}

type Service interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error)
	GetProject(ctx context.Context, id snowflake.ID) (*Project, error)
	ListProjects(ctx context.Context, filter ListProjectsFilter) ([]*Project, error)
	UpdateProject(ctx context.Context, req UpdateProjectRequest) (*Project, error)
	ArchiveProject(ctx context.Context, id snowflake.ID) error
}
