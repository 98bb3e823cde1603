package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestServiceError_StatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{BadRequestError(nil, "invalid amount"), http.StatusBadRequest},
		{InsufficientFundsError(nil, "insufficient coins", 35, 20), http.StatusBadRequest},
		{UnAuthorizedError(nil, "missing token"), http.StatusUnauthorized},
		{ForbiddenError(nil, "admin role required"), http.StatusForbidden},
		{ResourceNotFoundError(nil, "user not found"), http.StatusNotFound},
		{ConflictError(nil, "already subscribed"), http.StatusConflict},
		{TooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{GeneralError(errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var svcErr *ServiceError
		if !errors.As(tt.err, &svcErr) {
			t.Fatalf("expected *ServiceError, got %T", tt.err)
		}
		if got := svcErr.StatusCode(); got != tt.status {
			t.Errorf("%s: expected status %d, got %d", svcErr.Category, tt.status, got)
		}
	}
}

func TestIs_MatchesWrappedCategory(t *testing.T) {
	cause := errors.New("row missing")
	err := fmt.Errorf("load: %w", ResourceNotFoundError(cause, "gift not found"))

	if !Is(err, CategoryResourceNotFound) {
		t.Fatal("expected wrapped not-found error to match")
	}
	if Is(err, CategoryForbidden) {
		t.Fatal("unexpected category match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to stay reachable through Unwrap")
	}
}

func TestIsInternalError(t *testing.T) {
	if IsInternalError(BadRequestError(nil, "bad")) {
		t.Error("client errors are not internal")
	}
	if IsInternalError(InsufficientFundsError(nil, "insufficient coins", 1, 0)) {
		t.Error("insufficient funds is not internal")
	}
	if !IsInternalError(errors.New("boom")) {
		t.Error("plain errors are internal")
	}
	if !IsInternalError(GeneralError(nil)) {
		t.Error("general errors are internal")
	}
}

func TestInsufficientFundsError_Details(t *testing.T) {
	var svcErr *ServiceError
	if !errors.As(InsufficientFundsError(nil, "insufficient coins", 35, 20), &svcErr) {
		t.Fatal("expected *ServiceError")
	}
	if svcErr.Details["required"] != int64(35) || svcErr.Details["available"] != int64(20) {
		t.Fatalf("unexpected details: %v", svcErr.Details)
	}
	if svcErr.Category.String() != "CategoryInsufficientFunds" {
		t.Fatalf("unexpected category name %q", svcErr.Category)
	}
}
