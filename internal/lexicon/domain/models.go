package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry is a canonical construction term shared by all tenants.
// Translations maps language code to the translated string; Aliases
// holds the free-text spellings crews actually type.
type Entry struct {
	ID           snowflake.ID                `gorm:"primaryKey" json:"id"`
	Term         string                      `gorm:"not null" json:"term"`
	Translations datatypes.JSONMap           `gorm:"type:jsonb" json:"translations"`
	Aliases      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"aliases,omitempty"`
	Category     string                      `json:"category,omitempty"`
	Validated    bool                        `gorm:"not null;default:false" json:"validated"`
	UsageCount   int64                       `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (Entry) TableName() string { return "lexicon_entries" }

// Translation returns the stored translation for a language, if any.
func (e *Entry) Translation(lang string) (string, bool) {
	v, ok := e.Translations[lang].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Suggestion is a pending dictionary contribution. Approval spawns a
// validated Entry and links back to it; the canonical dictionary is
// never written without that review gate.
type Suggestion struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID            snowflake.ID      `gorm:"index" json:"company_id"`
	UserID               snowflake.ID      `gorm:"index;not null" json:"user_id"`
	Term                 string            `gorm:"not null" json:"term"`
	ProposedTranslations datatypes.JSONMap `gorm:"type:jsonb" json:"proposed_translations"`
	Category             string            `json:"category,omitempty"`
	Context              string            `json:"context,omitempty"`
	SourceLanguage       string            `json:"source_language,omitempty"`
	Status               SuggestionStatus  `gorm:"not null;default:pending" json:"status"`
	ReviewerID           *snowflake.ID     `json:"reviewer_id,omitempty"`
	ReviewedAt           *time.Time        `json:"reviewed_at,omitempty"`
	ReviewerNotes        string            `json:"reviewer_notes,omitempty"`
	EntryID              *snowflake.ID     `json:"entry_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (Suggestion) TableName() string { return "lexicon_suggestions" }

// Match is the outcome of a dictionary lookup. Confidence tiers:
// 1.0 exact, 0.8 translation substring, 0.7 alias substring, 0 none.
type Match struct {
	Entry      *Entry  `json:"entry,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// TranslationResult echoes the input term untranslated when nothing
// matches, tagged "unknown".
type TranslationResult struct {
	Term        string  `json:"term"`
	Language    string  `json:"language"`
	Translation string  `json:"translation"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
}

// Normalize is the single term normalization used by matching,
// aliasing and import.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
