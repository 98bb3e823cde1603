package ledger

import (
	"errors"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// ToServiceError maps primitive failures onto client-facing service errors.
// Errors it does not recognise are returned unchanged.
func ToServiceError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	if insufficient, ok := AsInsufficientFunds(err); ok {
		return apperrors.InsufficientFundsError(err, "insufficient coins", insufficient.Required, insufficient.Available)
	}
	switch {
	case errors.Is(err, userstore.ErrUserNotFound):
		return apperrors.ResourceNotFoundError(err, "user not found")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType):
		return apperrors.BadRequestError(err, "invalid amount")
	case errors.Is(err, ErrBalanceOverflow):
		return apperrors.BadRequestError(err, "balance limit exceeded")
	default:
		return err
	}
}
