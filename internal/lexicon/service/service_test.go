package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/lexicon/domain"
	"github.com/chantierflow/chantierflow/internal/lexicon/repository"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Entry{}, &domain.Suggestion{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.New(conn),
	})
}

func adminContext(companyID snowflake.ID) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(7),
		CompanyID: companyID,
		Role:      tenantctx.RoleAdmin,
	})
}

func userContext(companyID snowflake.ID) context.Context {
	return tenantctx.WithActor(context.Background(), tenantctx.Actor{
		UserID:    snowflake.ID(8),
		CompanyID: companyID,
		Role:      tenantctx.RoleDemandeur,
	})
}

func seedEntry(t *testing.T, svc domain.Service, term string, translations map[string]string, aliases []string) *domain.Entry {
	t.Helper()

	entry, err := svc.AddEntry(adminContext(snowflake.ID(100)), domain.EntryInput{
		Term:         term,
		Translations: translations,
		Aliases:      aliases,
		Category:     "materiaux",
		Validated:    true,
	})
	require.NoError(t, err)
	return entry
}

func TestSearchConfidenceTiers(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext(snowflake.ID(100))

	seedEntry(t, svc, "Ciment",
		map[string]string{"fr": "ciment", "ar": "إسمنت", "dr": "ciman"},
		[]string{"ssiman"},
	)

	// Exact translation hit.
	match, err := svc.Search(ctx, "  Ciman ")
	require.NoError(t, err)
	require.NotNil(t, match.Entry)
	require.Equal(t, 1.0, match.Confidence)

	// Exact alias hit.
	match, err = svc.Search(ctx, "ssiman")
	require.NoError(t, err)
	require.Equal(t, 1.0, match.Confidence)

	// Term contained inside a translation.
	match, err = svc.Search(ctx, "cima")
	require.NoError(t, err)
	require.Equal(t, 0.8, match.Confidence)

	// Term contained only inside an alias.
	match, err = svc.Search(ctx, "ssim")
	require.NoError(t, err)
	require.Equal(t, 0.7, match.Confidence)

	// No hit at all.
	match, err = svc.Search(ctx, "parpaing")
	require.NoError(t, err)
	require.Nil(t, match.Entry)
	require.Equal(t, 0.0, match.Confidence)
}

func TestSearchIncrementsUsageOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext(snowflake.ID(100))

	seedEntry(t, svc, "Ciment", map[string]string{"fr": "ciment"}, nil)

	match, err := svc.Search(ctx, "ciment")
	require.NoError(t, err)
	require.EqualValues(t, 1, match.Entry.UsageCount)

	// A miss does not touch any counter.
	_, err = svc.Search(ctx, "introuvable")
	require.NoError(t, err)

	match, err = svc.Search(ctx, "ciment")
	require.NoError(t, err)
	require.EqualValues(t, 2, match.Entry.UsageCount)
}

func TestUnvalidatedEntriesInvisibleToSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext(snowflake.ID(100))

	_, err := svc.AddEntry(adminContext(snowflake.ID(100)), domain.EntryInput{
		Term:         "Gravier",
		Translations: map[string]string{"fr": "gravier"},
		Validated:    false,
	})
	require.NoError(t, err)

	match, err := svc.Search(ctx, "gravier")
	require.NoError(t, err)
	require.Nil(t, match.Entry)
}

func TestTranslateFallsBackToFrenchThenUnknown(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext(snowflake.ID(100))

	seedEntry(t, svc, "Ciment", map[string]string{"fr": "ciment", "ar": "إسمنت"}, nil)

	result, err := svc.Translate(ctx, "ciment", "ar")
	require.NoError(t, err)
	require.Equal(t, "إسمنت", result.Translation)
	require.Equal(t, "lexicon", result.Source)
	require.Equal(t, 1.0, result.Confidence)

	// Entry found but no translation in the requested language: the
	// French text stands in, keeping the match's confidence.
	result, err = svc.Translate(ctx, "ciment", "es")
	require.NoError(t, err)
	require.Equal(t, "ciment", result.Translation)
	require.Equal(t, "lexicon", result.Source)
	require.Equal(t, 1.0, result.Confidence)

	// Term not in the dictionary at all.
	result, err = svc.Translate(ctx, "parpaing", "ar")
	require.NoError(t, err)
	require.Equal(t, "parpaing", result.Translation)
	require.Equal(t, "unknown", result.Source)
	require.Equal(t, 0.0, result.Confidence)
}

func TestApproveCreatesAliasedEntry(t *testing.T) {
	svc := newTestService(t)
	companyID := snowflake.ID(100)

	suggestion, err := svc.Suggest(userContext(companyID), domain.SuggestRequest{
		Term:           "Tuyeau PVC",
		Translations:   map[string]string{"fr": "tuyau PVC", "dr": "tiyo"},
		Category:       "plomberie",
		SourceLanguage: "fr",
	})
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionPending, suggestion.Status)

	pending, err := svc.ListPending(adminContext(companyID))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := svc.Approve(adminContext(companyID), domain.ApproveRequest{
		SuggestionID: suggestion.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	require.NotNil(t, approved.EntryID)

	// The originally typed term is now a searchable alias.
	match, err := svc.Search(userContext(companyID), "tuyeau pvc")
	require.NoError(t, err)
	require.NotNil(t, match.Entry)
	require.Equal(t, 1.0, match.Confidence)
	require.Equal(t, *approved.EntryID, match.Entry.ID)
	require.Equal(t, "plomberie", match.Entry.Category)

	// A reviewed suggestion cannot be reviewed again.
	_, err = svc.Approve(adminContext(companyID), domain.ApproveRequest{SuggestionID: suggestion.ID})
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
}

func TestApproveWithOverrides(t *testing.T) {
	svc := newTestService(t)
	companyID := snowflake.ID(100)

	suggestion, err := svc.Suggest(userContext(companyID), domain.SuggestRequest{
		Term:         "fer a beton",
		Translations: map[string]string{"fr": "fer"},
	})
	require.NoError(t, err)

	approved, err := svc.Approve(adminContext(companyID), domain.ApproveRequest{
		SuggestionID: suggestion.ID,
		Translations: map[string]string{"fr": "fer à béton", "dr": "ronda"},
		Category:     "gros-oeuvre",
	})
	require.NoError(t, err)

	entries, err := svc.ListEntries(adminContext(companyID), domain.ListEntriesFilter{ValidatedOnly: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, *approved.EntryID, entries[0].ID)
	require.Equal(t, "gros-oeuvre", entries[0].Category)
	translation, ok := entries[0].Translation("dr")
	require.True(t, ok)
	require.Equal(t, "ronda", translation)
}

func TestRejectLeavesDictionaryUntouched(t *testing.T) {
	svc := newTestService(t)
	companyID := snowflake.ID(100)

	suggestion, err := svc.Suggest(userContext(companyID), domain.SuggestRequest{
		Term: "blabla",
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(adminContext(companyID), suggestion.ID, "pas un terme chantier")
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionRejected, rejected.Status)
	require.Equal(t, "pas un terme chantier", rejected.ReviewerNotes)
	require.Nil(t, rejected.EntryID)

	entries, err := svc.ListEntries(adminContext(companyID), domain.ListEntriesFilter{})
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = svc.Reject(adminContext(companyID), snowflake.ID(424242), "")
	require.ErrorIs(t, err, domain.ErrSuggestionNotFound)
}

func TestSuggestionReviewScopedToTenant(t *testing.T) {
	svc := newTestService(t)

	suggestion, err := svc.Suggest(userContext(snowflake.ID(100)), domain.SuggestRequest{Term: "ciment"})
	require.NoError(t, err)

	_, err = svc.Approve(adminContext(snowflake.ID(200)), domain.ApproveRequest{SuggestionID: suggestion.ID})
	require.ErrorIs(t, err, domain.ErrSuggestionNotFound)

	pending, err := svc.ListPending(adminContext(snowflake.ID(200)))
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestBulkImportQueuesSuggestions(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext(snowflake.ID(100))

	input := strings.Join([]string{
		"Francais,Darija_arabe,Darija_latin,English,Categorie",
		"ciment,إسمنت,ciman,cement,materiaux",
		"sable,رمل,rmel,sand,materiaux",
		",منشار,menchar,,outils",
		"brouette,,,,transport",
	}, "\n")

	result, err := svc.BulkImport(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, result.Submitted)
	require.Equal(t, 2, result.Skipped)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "ciment", pending[0].Term)
	require.Equal(t, "cement", pending[0].ProposedTranslations["en"])
	require.Equal(t, domain.SuggestionPending, pending[0].Status)

	// Nothing reaches the canonical dictionary without review.
	entries, err := svc.ListEntries(ctx, domain.ListEntriesFilter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBulkImportRejectsUnknownHeader(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.BulkImport(adminContext(snowflake.ID(100)), strings.NewReader("foo,bar\n1,2\n"))
	require.ErrorIs(t, err, domain.ErrBadImportHeader)
}
