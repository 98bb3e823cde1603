package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type httpHandler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers the coin purchase and history routes
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Get("/coins/packages", apphttp.HandleError(h.packages))
	r.Post("/coins/purchase", apphttp.HandleError(h.purchase))
	r.Get("/transactions", apphttp.HandleError(h.transactions))
}

// RegisterAdminRoutes registers balance corrections; callers mount them behind auth.RequireRole.
func RegisterAdminRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Post("/admin/users/{id}/adjust-coins", apphttp.HandleError(h.adjustCoins))
}

func (h *httpHandler) packages(w http.ResponseWriter, r *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, h.svc.ListPackages(r.Context()))
	return nil
}

func (h *httpHandler) purchase(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req ledger.PurchaseRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.Purchase(r.Context(), userID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *httpHandler) transactions(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}
	limit, offset := apphttp.Pagination(r, defaultPageSize, maxPageSize)

	txs, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, txs)
	return nil
}

func (h *httpHandler) adjustCoins(w http.ResponseWriter, r *http.Request) error {
	adminID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}
	targetID, err := apphttp.IDParam(r, "id")
	if err != nil {
		return err
	}

	var req ledger.AdjustCoinsRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	usr, err := h.svc.AdjustCoins(r.Context(), adminID, targetID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, usr)
	return nil
}
