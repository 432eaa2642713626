package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	lexicondomain "github.com/chantierflow/chantierflow/internal/lexicon/domain"
)

type SuggestTermRequest struct {
	Term           string            `json:"term"`
	Translations   map[string]string `json:"translations"`
	Category       string            `json:"category"`
	Context        string            `json:"context"`
	SourceLanguage string            `json:"source_language"`
}

type ReviewSuggestionRequest struct {
	Translations map[string]string `json:"translations"`
	Category     string            `json:"category"`
	Notes        string            `json:"notes"`
}

type LexiconEntryRequest struct {
	Term         string            `json:"term"`
	Translations map[string]string `json:"translations"`
	Aliases      []string          `json:"aliases"`
	Category     string            `json:"category"`
	Validated    bool              `json:"validated"`
}

func (s *Server) SearchLexicon(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		AbortWithError(c, lexicondomain.ErrInvalidTerm)
		return
	}

	match, err := s.lexiconsvc.Search(c.Request.Context(), term)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (s *Server) TranslateTerm(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		AbortWithError(c, lexicondomain.ErrInvalidTerm)
		return
	}
	toLang := strings.TrimSpace(c.Query("to"))
	if toLang == "" {
		toLang = s.requestLocale(c)
	}

	result, err := s.lexiconsvc.Translate(c.Request.Context(), term, toLang)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListLexiconEntries(c *gin.Context) {
	entries, err := s.lexiconsvc.ListEntries(c.Request.Context(), lexicondomain.ListEntriesFilter{
		ValidatedOnly: queryBool(c, "validated"),
		Category:      c.Query("category"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) CreateLexiconEntry(c *gin.Context) {
	var req LexiconEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.lexiconsvc.AddEntry(c.Request.Context(), entryInput(req))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) UpdateLexiconEntry(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req LexiconEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.lexiconsvc.UpdateEntry(c.Request.Context(), id, entryInput(req))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) DeleteLexiconEntry(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.lexiconsvc.DeleteEntry(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func entryInput(req LexiconEntryRequest) lexicondomain.EntryInput {
	return lexicondomain.EntryInput{
		Term:         req.Term,
		Translations: req.Translations,
		Aliases:      req.Aliases,
		Category:     req.Category,
		Validated:    req.Validated,
	}
}

func (s *Server) SuggestLexiconTerm(c *gin.Context) {
	var req SuggestTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	suggestion, err := s.lexiconsvc.Suggest(c.Request.Context(), lexicondomain.SuggestRequest{
		Term:           req.Term,
		Translations:   req.Translations,
		Category:       req.Category,
		Context:        req.Context,
		SourceLanguage: req.SourceLanguage,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suggestion)
}

func (s *Server) ListPendingSuggestions(c *gin.Context) {
	suggestions, err := s.lexiconsvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) ApproveSuggestion(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req ReviewSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	suggestion, err := s.lexiconsvc.Approve(c.Request.Context(), lexicondomain.ApproveRequest{
		SuggestionID: id,
		Translations: req.Translations,
		Category:     req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (s *Server) RejectSuggestion(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req ReviewSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	suggestion, err := s.lexiconsvc.Reject(c.Request.Context(), id, req.Notes)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// ImportLexiconCSV queues every well-formed row as a pending
// suggestion; nothing reaches the canonical dictionary unreviewed.
func (s *Server) ImportLexiconCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer f.Close()

	result, err := s.lexiconsvc.BulkImport(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
