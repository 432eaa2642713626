package domain

import "errors"

var (
	ErrNotFound         = errors.New("company_not_found")
	ErrSlugTaken        = errors.New("slug_taken")
	ErrInvalidNumbering = errors.New("invalid_numbering")
	ErrInvalidName      = errors.New("invalid_name")
	ErrForbidden        = errors.New("forbidden")
)
