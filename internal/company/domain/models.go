package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Company is a tenant. Every project, product, order and non-platform
// user hangs off exactly one company.
type Company struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Slug      string            `gorm:"uniqueIndex;not null" json:"slug"`
	Address   string            `json:"address,omitempty"`
	City      string            `json:"city,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Email     string            `json:"email,omitempty"`
	ICE       string            `gorm:"column:ice" json:"ice,omitempty"`
	RC        string            `gorm:"column:rc" json:"rc,omitempty"`
	Patente   string            `json:"patente,omitempty"`
	IFNumber  string            `gorm:"column:if_number" json:"if_number,omitempty"`
	BCFooter  string            `gorm:"column:bc_footer" json:"bc_footer,omitempty"`
	LogoPath  string            `json:"logo_path,omitempty"`
	Settings  datatypes.JSONMap `gorm:"type:jsonb" json:"settings,omitempty"`
	BCCounter int64             `gorm:"column:bc_counter;not null;default:0" json:"bc_counter"`
	IsActive  bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

const (
	YearFormatLong  = "YYYY"
	YearFormatShort = "YY"

	settingsNumberingKey = "numbering"
)

// Numbering describes how a company formats its purchase order
// references, e.g. BC-2026-0042.
type Numbering struct {
	Prefix         string `json:"prefix"`
	Separator      string `json:"separator"`
	YearFormat     string `json:"year_format"`
	SequenceLength int    `json:"sequence_length"`
	StartNumber    int64  `json:"start_number"`
}

func DefaultNumbering() Numbering {
	return Numbering{
		Prefix:         "BC",
		Separator:      "-",
		YearFormat:     YearFormatLong,
		SequenceLength: 4,
		StartNumber:    1,
	}
}

func (n Numbering) Validate() error {
	if strings.TrimSpace(n.Prefix) == "" {
		return ErrInvalidNumbering
	}
	if n.YearFormat != YearFormatLong && n.YearFormat != YearFormatShort {
		return ErrInvalidNumbering
	}
	if n.SequenceLength < 1 || n.SequenceLength > 10 {
		return ErrInvalidNumbering
	}
	if n.StartNumber < 1 {
		return ErrInvalidNumbering
	}
	return nil
}

// Format renders a reference for the given issue time and sequence.
// Sequences wider than SequenceLength are not truncated.
func (n Numbering) Format(at time.Time, seq int64) string {
	year := at.Format("2006")
	if n.YearFormat == YearFormatShort {
		year = at.Format("06")
	}
	return fmt.Sprintf("%s%s%s%s%0*d", n.Prefix, n.Separator, year, n.Separator, n.SequenceLength, seq)
}

// Numbering reads the numbering settings stored on the company row,
// falling back to defaults for anything absent or malformed.
func (c *Company) Numbering() Numbering {
	n := DefaultNumbering()
	raw, ok := c.Settings[settingsNumberingKey].(map[string]interface{})
	if !ok {
		return n
	}
	if v, ok := raw["prefix"].(string); ok && strings.TrimSpace(v) != "" {
		n.Prefix = v
	}
	if v, ok := raw["separator"].(string); ok {
		n.Separator = v
	}
	if v, ok := raw["year_format"].(string); ok && (v == YearFormatLong || v == YearFormatShort) {
		n.YearFormat = v
	}
	if v, ok := asInt64(raw["sequence_length"]); ok && v >= 1 && v <= 10 {
		n.SequenceLength = int(v)
	}
	if v, ok := asInt64(raw["start_number"]); ok && v >= 1 {
		n.StartNumber = v
	}
	return n
}

// SetNumbering writes the numbering settings back onto the row.
func (c *Company) SetNumbering(n Numbering) {
	if c.Settings == nil {
		c.Settings = datatypes.JSONMap{}
	}
	c.Settings[settingsNumberingKey] = map[string]interface{}{
		"prefix":          n.Prefix,
		"separator":       n.Separator,
		"year_format":     n.YearFormat,
		"sequence_length": n.SequenceLength,
		"start_number":    n.StartNumber,
	}
}

// JSON numbers come back as float64; direct writes may leave ints.
func asInt64(v interface{}) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	default:
		return 0, false
	}
}
