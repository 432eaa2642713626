package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/authorization"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	lexicondomain "github.com/chantierflow/chantierflow/internal/lexicon/domain"
	orderdomain "github.com/chantierflow/chantierflow/internal/order/domain"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/providers/upload"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrTooManyLogins  = errors.New("too_many_login_attempts")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrUserDisabled):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	// Cross-tenant lookups surface as not found before forbidden can
	// leak existence; only same-tenant role failures reach here.
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authdomain.ErrForbidden),
		errors.Is(err, companydomain.ErrForbidden),
		errors.Is(err, projectdomain.ErrForbidden),
		errors.Is(err, productdomain.ErrForbidden),
		errors.Is(err, orderdomain.ErrForbidden),
		errors.Is(err, lexicondomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, orderdomain.ErrIllegalTransition):
		return http.StatusConflict, errorPayload{
			Type:    "illegal_transition",
			Code:    "illegal_transition",
			Message: err.Error(),
		}

	case errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, companydomain.ErrSlugTaken),
		errors.Is(err, lexicondomain.ErrAlreadyReviewed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}

	case errors.Is(err, ErrTooManyLogins):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many attempts, retry later",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidNumbering),
		errors.Is(err, projectdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, orderdomain.ErrInvalidLine),
		errors.Is(err, orderdomain.ErrEmptyOrder),
		errors.Is(err, orderdomain.ErrProjectInactive),
		errors.Is(err, lexicondomain.ErrInvalidTerm),
		errors.Is(err, lexicondomain.ErrBadImportHeader),
		errors.Is(err, upload.ErrDisallowedExtension),
		errors.Is(err, pagination.ErrInvalidToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrProjectNotFound),
		errors.Is(err, orderdomain.ErrLineNotFound),
		errors.Is(err, lexicondomain.ErrEntryNotFound),
		errors.Is(err, lexicondomain.ErrSuggestionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger a stable (type, code)
// pair without leaking internals into log cardinality.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, payload.Code
}
