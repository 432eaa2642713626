package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

type ListEntriesFilter struct {
	ValidatedOnly bool
	Category      string
}

type Repository interface {
	CreateEntry(ctx context.Context, entry *Entry) error
	UpdateEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, id snowflake.ID) error
	FindEntry(ctx context.Context, id snowflake.ID) (*Entry, error)
	ListEntries(ctx context.Context, filter ListEntriesFilter) ([]*Entry, error)
	IncrementUsage(ctx context.Context, id snowflake.ID) error

	CreateSuggestion(ctx context.Context, suggestion *Suggestion) error
	UpdateSuggestion(ctx context.Context, suggestion *Suggestion) error
	FindSuggestion(ctx context.Context, id snowflake.ID) (*Suggestion, error)
	ListSuggestions(ctx context.Context, scope tenantctx.Scope, status SuggestionStatus) ([]*Suggestion, error)
}
