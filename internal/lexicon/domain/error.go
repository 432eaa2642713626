package domain

import "errors"

var (
	ErrEntryNotFound      = errors.New("entry_not_found")
	ErrSuggestionNotFound = errors.New("suggestion_not_found")
	ErrAlreadyReviewed    = errors.New("suggestion_already_reviewed")
	ErrInvalidTerm        = errors.New("invalid_term")
	ErrForbidden          = errors.New("forbidden")
	ErrBadImportHeader    = errors.New("bad_import_header")
)
