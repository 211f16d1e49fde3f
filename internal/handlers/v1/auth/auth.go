package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-tracker/internal/logging"
	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/session"
)

// Authenticator resolves a bearer token to its open session.
type Authenticator interface {
	Resolve(token string) (*session.Session, error)
}

// UserID resolves the Authorization header to the signed-in user's id and
// records it on the request's log data. authMs sums every resolve of the request.
func UserID(ctx context.Context, a Authenticator, authorization string) (string, error) {
	logData := logging.GetLogData(ctx)
	if logData != nil {
		defer logData.AddToExistingTiming("authMs")()
	}

	s, err := a.Resolve(authorization)
	if err != nil {
		return "", huma.NewError(http.StatusUnauthorized, "sign in required", err)
	}
	if logData != nil {
		logData.AddData("userID", s.Identity.UserID)
	}
	return s.Identity.UserID, nil
}

// Error converts a domain error to the matching HTTP error.
func Error(message string, err error) error {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return huma.NewError(http.StatusUnauthorized, message, err)
	case errors.Is(err, models.ErrNotFound):
		return huma.NewError(http.StatusNotFound, message, err)
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidType),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrInvalidDescription),
		errors.Is(err, models.ErrInvalidBudget):
		return huma.NewError(http.StatusBadRequest, message, err)
	case errors.Is(err, models.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return huma.NewError(http.StatusServiceUnavailable, message, err)
	}
	return huma.NewError(http.StatusInternalServerError, message, err)
}
