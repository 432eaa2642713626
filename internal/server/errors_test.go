package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	orderdomain "github.com/chantierflow/chantierflow/internal/order/domain"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", authdomain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found hides tenancy", orderdomain.ErrNotFound, http.StatusNotFound},
		{"empty order is validation", orderdomain.ErrEmptyOrder, http.StatusBadRequest},
		{"bad page token is validation", pagination.ErrInvalidToken, http.StatusBadRequest},
		{"slug conflict", companydomain.ErrSlugTaken, http.StatusConflict},
		{"rate limited", ErrTooManyLogins, http.StatusTooManyRequests},
		{"unknown is internal", assertableError("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			require.Equal(t, tc.status, status)
		})
	}
}

func TestMapErrorIllegalTransitionKeepsDetail(t *testing.T) {
	err := orderdomain.ErrValidateRequiresSubmitted(orderdomain.StatusDraft)

	status, payload := mapError(err)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "illegal_transition", payload.Type)
	require.Contains(t, payload.Message, string(orderdomain.StatusDraft))
	require.Contains(t, payload.Message, string(orderdomain.StatusSubmitted))
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
