package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
)

type httpHandler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers the referral HTTP routes
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Get("/referrals", apphttp.HandleError(h.stats))
	r.Post("/referrals/apply", apphttp.HandleError(h.apply))
}

func (h *httpHandler) stats(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, stats)
	return nil
}

func (h *httpHandler) apply(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req referral.ApplyCodeRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	bonus, err := h.svc.ApplyCode(r.Context(), userID, req.Code)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, bonus)
	return nil
}
