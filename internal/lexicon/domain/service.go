package domain

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
)

type SuggestRequest struct {
	Term           string
	Translations   map[string]string
	Category       string
	Context        string
	SourceLanguage string
}

type ApproveRequest struct {
	SuggestionID snowflake.ID
	Translations map[string]string
	Category     string
}

type EntryInput struct {
	Term         string
	Translations map[string]string
	Aliases      []string
	Category     string
	Validated    bool
}

type ImportResult struct {
	Submitted int `json:"submitted"`
	Skipped   int `json:"skipped"`
}

type Service interface {
	Search(ctx context.Context, term string) (*Match, error)
	Translate(ctx context.Context, term, toLang string) (*TranslationResult, error)

	Suggest(ctx context.Context, req SuggestRequest) (*Suggestion, error)
	ListPending(ctx context.Context) ([]*Suggestion, error)
	Approve(ctx context.Context, req ApproveRequest) (*Suggestion, error)
	Reject(ctx context.Context, suggestionID snowflake.ID, notes string) (*Suggestion, error)

	AddEntry(ctx context.Context, input EntryInput) (*Entry, error)
	UpdateEntry(ctx context.Context, id snowflake.ID, input EntryInput) (*Entry, error)
	DeleteEntry(ctx context.Context, id snowflake.ID) error
	ListEntries(ctx context.Context, filter ListEntriesFilter) ([]*Entry, error)

	// BulkImport feeds CSV rows into the suggestion queue; it never
	// writes the canonical dictionary directly.
	BulkImport(ctx context.Context, r io.Reader) (*ImportResult, error)
}
