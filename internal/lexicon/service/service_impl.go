package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/lexicon/domain"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	matchSourceExact       = "exact"
	matchSourceTranslation = "translation"
	matchSourceAlias       = "alias"
	matchSourceNone        = "none"
	matchSourceUnknown     = "unknown"
	matchSourceLexicon     = "lexicon"
)

// Import headers as they appear in the legacy spreadsheets.
var importLanguages = map[string]string{
	"francais":     "fr",
	"darija_arabe": "ar",
	"darija_latin": "dr",
	"english":      "en",
	"espagnol":     "es",
}

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("lexicon.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Search runs three decreasing-confidence passes over the validated
// dictionary: exact (1.0), translation substring (0.8), alias
// substring (0.7). The first hit wins and bumps the entry's usage
// counter. A linear scan is fine at dictionary size (hundreds to low
// thousands of terms).
func (s *Service) Search(ctx context.Context, term string) (*domain.Match, error) {
	if _, ok := tenantctx.ActorFromContext(ctx); !ok {
		return nil, domain.ErrForbidden
	}

	needle := domain.Normalize(term)
	if needle == "" {
		return nil, domain.ErrInvalidTerm
	}

	entries, err := s.repo.ListEntries(ctx, domain.ListEntriesFilter{ValidatedOnly: true})
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entryMatchesExact(entry, needle) {
			return s.hit(ctx, entry, 1.0, matchSourceExact)
		}
	}
	for _, entry := range entries {
		if entryMatchesTranslation(entry, needle) {
			return s.hit(ctx, entry, 0.8, matchSourceTranslation)
		}
	}
	for _, entry := range entries {
		if entryMatchesAlias(entry, needle) {
			return s.hit(ctx, entry, 0.7, matchSourceAlias)
		}
	}

	return &domain.Match{Confidence: 0, Source: matchSourceNone}, nil
}

func (s *Service) hit(ctx context.Context, entry *domain.Entry, confidence float64, source string) (*domain.Match, error) {
	if err := s.repo.IncrementUsage(ctx, entry.ID); err != nil {
		s.log.Warn("failed to bump usage counter", zap.Error(err))
	} else {
		entry.UsageCount++
	}
	return &domain.Match{Entry: entry, Confidence: confidence, Source: source}, nil
}

func (s *Service) Translate(ctx context.Context, term, toLang string) (*domain.TranslationResult, error) {
	toLang = strings.ToLower(strings.TrimSpace(toLang))

	match, err := s.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if match.Entry != nil {
		// Requested language first, then the canonical French text.
		translation, ok := match.Entry.Translation(toLang)
		if !ok {
			translation, ok = match.Entry.Translation("fr")
		}
		if ok {
			return &domain.TranslationResult{
				Term:        term,
				Language:    toLang,
				Translation: translation,
				Confidence:  match.Confidence,
				Source:      matchSourceLexicon,
			}, nil
		}
	}

	return &domain.TranslationResult{
		Term:        term,
		Language:    toLang,
		Translation: term,
		Confidence:  0,
		Source:      matchSourceUnknown,
	}, nil
}

func (s *Service) Suggest(ctx context.Context, req domain.SuggestRequest) (*domain.Suggestion, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, domain.ErrInvalidTerm
	}

	now := time.Now().UTC()
	suggestion := &domain.Suggestion{
		ID:                   s.genID.Generate(),
		CompanyID:            actor.CompanyID,
		UserID:               actor.UserID,
		Term:                 term,
		ProposedTranslations: toJSONMap(req.Translations),
		Category:             strings.TrimSpace(req.Category),
		Context:              strings.TrimSpace(req.Context),
		SourceLanguage:       strings.ToLower(strings.TrimSpace(req.SourceLanguage)),
		Status:               domain.SuggestionPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.CreateSuggestion(ctx, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*domain.Suggestion, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListSuggestions(ctx, actor.Scope(), domain.SuggestionPending)
}

func (s *Service) Approve(ctx context.Context, req domain.ApproveRequest) (*domain.Suggestion, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	suggestion, err := s.repo.FindSuggestion(ctx, req.SuggestionID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(suggestion.CompanyID) {
		return nil, domain.ErrSuggestionNotFound
	}
	if suggestion.Status != domain.SuggestionPending {
		return nil, domain.ErrAlreadyReviewed
	}

	translations := suggestion.ProposedTranslations
	if len(req.Translations) > 0 {
		translations = toJSONMap(req.Translations)
	}
	category := suggestion.Category
	if strings.TrimSpace(req.Category) != "" {
		category = strings.TrimSpace(req.Category)
	}

	now := time.Now().UTC()
	entry := &domain.Entry{
		ID:           s.genID.Generate(),
		Term:         suggestion.Term,
		Translations: translations,
		// The originally typed spelling becomes an alias so the next
		// crew member who types it gets a direct hit.
		Aliases:    datatypes.NewJSONSlice([]string{domain.Normalize(suggestion.Term)}),
		Category:   category,
		Validated:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	reviewer := actor.UserID
	suggestion.Status = domain.SuggestionApproved
	suggestion.ReviewerID = &reviewer
	suggestion.ReviewedAt = &now
	suggestion.EntryID = &entry.ID
	suggestion.UpdatedAt = now
	if err := s.repo.UpdateSuggestion(ctx, suggestion); err != nil {
		return nil, err
	}

	s.log.Info("suggestion approved",
		zap.String("suggestion_id", suggestion.ID.String()),
		zap.String("entry_id", entry.ID.String()),
	)
	return suggestion, nil
}

func (s *Service) Reject(ctx context.Context, suggestionID snowflake.ID, notes string) (*domain.Suggestion, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	suggestion, err := s.repo.FindSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(suggestion.CompanyID) {
		return nil, domain.ErrSuggestionNotFound
	}
	if suggestion.Status != domain.SuggestionPending {
		return nil, domain.ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	reviewer := actor.UserID
	suggestion.Status = domain.SuggestionRejected
	suggestion.ReviewerID = &reviewer
	suggestion.ReviewedAt = &now
	suggestion.ReviewerNotes = strings.TrimSpace(notes)
	suggestion.UpdatedAt = now
	if err := s.repo.UpdateSuggestion(ctx, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (s *Service) AddEntry(ctx context.Context, input domain.EntryInput) (*domain.Entry, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	term := strings.TrimSpace(input.Term)
	if term == "" {
		return nil, domain.ErrInvalidTerm
	}

	now := time.Now().UTC()
	entry := &domain.Entry{
		ID:           s.genID.Generate(),
		Term:         term,
		Translations: toJSONMap(input.Translations),
		Aliases:      normalizeAliases(input.Aliases),
		Category:     strings.TrimSpace(input.Category),
		Validated:    input.Validated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) UpdateEntry(ctx context.Context, id snowflake.ID, input domain.EntryInput) (*domain.Entry, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	entry, err := s.repo.FindEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if term := strings.TrimSpace(input.Term); term != "" {
		entry.Term = term
	}
	if input.Translations != nil {
		entry.Translations = toJSONMap(input.Translations)
	}
	if input.Aliases != nil {
		entry.Aliases = normalizeAliases(input.Aliases)
	}
	if strings.TrimSpace(input.Category) != "" {
		entry.Category = strings.TrimSpace(input.Category)
	}
	entry.Validated = input.Validated

	entry.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id snowflake.ID) error {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.repo.DeleteEntry(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, filter domain.ListEntriesFilter) ([]*domain.Entry, error) {
	if _, ok := tenantctx.ActorFromContext(ctx); !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListEntries(ctx, filter)
}

// BulkImport reads the legacy CSV layout (Francais, Darija_arabe,
// Darija_latin, English, Espagnol, optional Categorie) and queues one
// pending suggestion per usable row.
func (s *Service) BulkImport(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.ErrBadImportHeader
	}

	langByColumn := map[int]string{}
	categoryColumn := -1
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if lang, ok := importLanguages[key]; ok {
			langByColumn[i] = lang
		}
		if key == "categorie" || key == "category" {
			categoryColumn = i
		}
	}
	if len(langByColumn) == 0 {
		return nil, domain.ErrBadImportHeader
	}

	result := &domain.ImportResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			continue
		}

		translations := map[string]string{}
		for i, lang := range langByColumn {
			if i < len(record) {
				if value := strings.TrimSpace(record[i]); value != "" {
					translations[lang] = value
				}
			}
		}
		term := translations["fr"]
		if term == "" || len(translations) < 2 {
			result.Skipped++
			continue
		}

		category := ""
		if categoryColumn >= 0 && categoryColumn < len(record) {
			category = strings.TrimSpace(record[categoryColumn])
		}

		now := time.Now().UTC()
		suggestion := &domain.Suggestion{
			ID:                   s.genID.Generate(),
			CompanyID:            actor.CompanyID,
			UserID:               actor.UserID,
			Term:                 term,
			ProposedTranslations: toJSONMap(translations),
			Category:             category,
			SourceLanguage:       "fr",
			Status:               domain.SuggestionPending,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := s.repo.CreateSuggestion(ctx, suggestion); err != nil {
			return nil, err
		}
		result.Submitted++
	}

	s.log.Info("lexicon import queued",
		zap.Int("submitted", result.Submitted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func entryMatchesExact(entry *domain.Entry, needle string) bool {
	for _, v := range entry.Translations {
		if translation, ok := v.(string); ok && domain.Normalize(translation) == needle {
			return true
		}
	}
	for _, alias := range entry.Aliases {
		if domain.Normalize(alias) == needle {
			return true
		}
	}
	return false
}

func entryMatchesTranslation(entry *domain.Entry, needle string) bool {
	for _, v := range entry.Translations {
		if translation, ok := v.(string); ok && strings.Contains(domain.Normalize(translation), needle) {
			return true
		}
	}
	return false
}

func entryMatchesAlias(entry *domain.Entry, needle string) bool {
	for _, alias := range entry.Aliases {
		if strings.Contains(domain.Normalize(alias), needle) {
			return true
		}
	}
	return false
}

func toJSONMap(values map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for lang, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(lang))] = value
	}
	return out
}

func normalizeAliases(aliases []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(aliases))
	seen := map[string]bool{}
	for _, alias := range aliases {
		alias = domain.Normalize(alias)
		if alias == "" || seen[alias] {
			continue
		}
		seen[alias] = true
		out = append(out, alias)
	}
	return datatypes.NewJSONSlice(out)
}
