package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"gorm.io/datatypes"
)

// Status values keep the French wire names the mobile clients already
// speak. The only legal transitions:
//
//	BROUILLON --submit--> SOUMIS --validate--> VALIDE --pdf--> PDF_GENERE --share--> PARTAGE
//	SOUMIS --reject--> BROUILLON
type Status string

const (
	StatusDraft        Status = "BROUILLON"
	StatusSubmitted    Status = "SOUMIS"
	StatusValidated    Status = "VALIDE"
	StatusPDFGenerated Status = "PDF_GENERE"
	StatusShared       Status = "PARTAGE"
)

type HistoryAction string

const (
	HistoryCreation      HistoryAction = "CREATION"
	HistorySubmission    HistoryAction = "SOUMISSION"
	HistoryValidation    HistoryAction = "VALIDATION"
	HistoryRejection     HistoryAction = "REJET"
	HistoryPDFGeneration HistoryAction = "PDF_GENERATION"
	HistoryShare         HistoryAction = "PARTAGE"
)

// Order is a purchase order (bon de commande). It is never deleted;
// every status change appends an OrderHistory row in the same
// transaction. The total is always derived from the lines.
type Order struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"uniqueIndex:idx_orders_company_reference;not null" json:"company_id"`
	ProjectID snowflake.ID `gorm:"index;not null" json:"project_id"`
	Reference string       `gorm:"uniqueIndex:idx_orders_company_reference;not null" json:"reference"`
	Status    Status       `gorm:"not null;default:BROUILLON" json:"status"`

	SupplierName    string     `json:"supplier_name,omitempty"`
	SupplierPhone   string     `json:"supplier_phone,omitempty"`
	SupplierAddress string     `json:"supplier_address,omitempty"`
	RequestedDate   *time.Time `json:"requested_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`

	CreatedBy   snowflake.ID  `gorm:"index;not null" json:"created_by"`
	ValidatedBy *snowflake.ID `json:"validated_by,omitempty"`
	ValidatedAt *time.Time    `json:"validated_at,omitempty"`

	PDFPath        string     `gorm:"column:pdf_path" json:"pdf_path,omitempty"`
	PDFGeneratedAt *time.Time `gorm:"column:pdf_generated_at" json:"pdf_generated_at,omitempty"`
	ShareChannel   string     `json:"share_channel,omitempty"`
	SharedAt       *time.Time `json:"shared_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lines   []OrderLine    `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	History []OrderHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderLine numbers are dense 1..N; deleting a line renumbers the
// rest in the same transaction.
type OrderLine struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderID      snowflake.ID      `gorm:"index;not null" json:"order_id"`
	LineNumber   int               `gorm:"not null" json:"line_number"`
	ProductID    *snowflake.ID     `json:"product_id,omitempty"`
	Description  string            `gorm:"not null" json:"description"`
	Translations datatypes.JSONMap `gorm:"type:jsonb" json:"translations,omitempty"`
	Quantity     float64           `gorm:"not null" json:"quantity"`
	Unit         string            `json:"unit,omitempty"`
	UnitPrice    float64           `gorm:"not null" json:"unit_price"`
	Note         string            `json:"note,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l OrderLine) Total() float64 {
	return l.Quantity * l.UnitPrice
}

type OrderHistory struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID      `gorm:"index;not null" json:"order_id"`
	Action    HistoryAction     `gorm:"not null" json:"action"`
	OldStatus Status            `json:"old_status,omitempty"`
	NewStatus Status            `json:"new_status,omitempty"`
	ActorID   snowflake.ID      `json:"actor_id"`
	Details   datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (OrderHistory) TableName() string { return "order_history" }

// Total sums the lines. Never persisted.
func (o *Order) Total() float64 {
	var total float64
	for _, line := range o.Lines {
		total += line.Total()
	}
	return total
}

// CanEdit gates line mutations. Drafts are editable by their creator
// or a tenant admin; validators may still correct a submitted order.
func (o *Order) CanEdit(actor tenantctx.Actor) bool {
	if !actor.CanAccess(o.CompanyID) {
		return false
	}
	switch o.Status {
	case StatusDraft:
		return o.CreatedBy == actor.UserID || actor.IsAdmin()
	case StatusSubmitted:
		return actor.CanValidateOrders()
	default:
		return false
	}
}

func (o *Order) CanSubmit(actor tenantctx.Actor) bool {
	if !actor.CanAccess(o.CompanyID) || o.Status != StatusDraft {
		return false
	}
	return o.CreatedBy == actor.UserID || actor.IsAdmin()
}

func (o *Order) CanValidate(actor tenantctx.Actor) bool {
	return actor.CanAccess(o.CompanyID) && o.Status == StatusSubmitted && actor.CanValidateOrders()
}

func (o *Order) CanReject(actor tenantctx.Actor) bool {
	return o.CanValidate(actor)
}

func (o *Order) CanGeneratePDF(actor tenantctx.Actor) bool {
	return actor.CanAccess(o.CompanyID) && o.Status == StatusValidated && actor.CanValidateOrders()
}

func (o *Order) CanShare(actor tenantctx.Actor) bool {
	if !actor.CanAccess(o.CompanyID) || !actor.CanValidateOrders() {
		return false
	}
	switch o.Status {
	case StatusValidated, StatusPDFGenerated, StatusShared:
		return true
	default:
		return false
	}
}
