package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type httpHandler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers the profile routes for authenticated users
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Get("/users/me", apphttp.HandleError(h.me))
	r.Put("/users/me/message-price", apphttp.HandleError(h.updateMessagePrice))
	r.Get("/performers", apphttp.HandleError(h.listPerformers))
}

// RegisterAdminRoutes registers account management routes; callers mount them behind auth.RequireRole.
func RegisterAdminRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Post("/admin/users", apphttp.HandleError(h.createUser))
}

func (h *httpHandler) me(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	usr, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, usr)
	return nil
}

func (h *httpHandler) updateMessagePrice(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req user.UpdatePriceRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	usr, err := h.svc.UpdateMessagePrice(r.Context(), userID, req.MessagePrice)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, usr)
	return nil
}

func (h *httpHandler) listPerformers(w http.ResponseWriter, r *http.Request) error {
	if _, err := auth.MustUserID(r); err != nil {
		return err
	}
	limit, offset := apphttp.Pagination(r, defaultPageSize, maxPageSize)

	performers, err := h.svc.ListPerformers(r.Context(), limit, offset)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, performers)
	return nil
}

func (h *httpHandler) createUser(w http.ResponseWriter, r *http.Request) error {
	adminID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req user.CreateRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	usr, err := h.svc.CreateUser(r.Context(), adminID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, usr)
	return nil
}
