package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainErrorMatchesByCode(t *testing.T) {
	err := NewUnauthorized("token expired")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrForbidden)

	wrapped := fmt.Errorf("gate: %w", NewNotFound("user", nil))
	require.ErrorIs(t, wrapped, ErrNotFound)
}

func TestPersistenceErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError(cause)

	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, cause)

	domainErr := ToDomainError(err)
	require.Equal(t, "storage failure", domainErr.Message)
	require.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}

func TestToDomainError(t *testing.T) {
	require.Nil(t, ToDomainError(nil))

	plain := ToDomainError(errors.New("boom"))
	require.Equal(t, CodeInternal, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)

	role := ToDomainError(NewInvalidRole("root"))
	require.Equal(t, CodeInvalidRole, role.Code)
	require.Equal(t, http.StatusBadRequest, role.HTTPStatus)
	require.Contains(t, role.Details, "allowed")
}

func TestStatusMapping(t *testing.T) {
	cases := map[*DomainError]int{
		ErrEmailTaken:         http.StatusConflict,
		ErrInvalidCredentials: http.StatusUnauthorized,
		ErrPendingApproval:    http.StatusForbidden,
		ErrUnauthorized:       http.StatusUnauthorized,
		ErrForbidden:          http.StatusForbidden,
		ErrNotFound:           http.StatusNotFound,
		ErrSelfDeletion:       http.StatusBadRequest,
		ErrInvalidRole:        http.StatusBadRequest,
		ErrConflict:           http.StatusConflict,
		ErrPersistence:        http.StatusInternalServerError,
		ErrValidation:         http.StatusBadRequest,
	}
	for err, status := range cases {
		require.Equal(t, status, err.HTTPStatus, err.Code)
	}
}
