package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
)

type httpHandler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers the monetization HTTP routes under /monetization
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Route("/monetization", func(r chi.Router) {
		r.Get("/gifts", apphttp.HandleError(h.listGifts))
		r.Post("/send-gift", apphttp.HandleError(h.sendGift))

		r.Get("/subscriptions", apphttp.HandleError(h.listSubscriptions))
		r.Post("/subscribe", apphttp.HandleError(h.subscribe))

		r.Get("/lootboxes", apphttp.HandleError(h.listLootboxes))
		r.Post("/open-lootbox", apphttp.HandleError(h.openLootbox))
		r.Get("/boosts", apphttp.HandleError(h.listBoosts))

		r.Get("/tasks", apphttp.HandleError(h.listTasks))
		r.Post("/claim-task-reward", apphttp.HandleError(h.claimTaskReward))
	})
}

func (h *httpHandler) listGifts(w http.ResponseWriter, r *http.Request) error {
	gifts, err := h.svc.ListGifts(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, gifts)
	return nil
}

func (h *httpHandler) sendGift(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req monetization.SendGiftRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.SendGift(r.Context(), userID, &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *httpHandler) listSubscriptions(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	subs, err := h.svc.ListSubscriptions(r.Context(), userID)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, subs)
	return nil
}

func (h *httpHandler) subscribe(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req monetization.SubscribeRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.Subscribe(r.Context(), userID, &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *httpHandler) listLootboxes(w http.ResponseWriter, r *http.Request) error {
	boxes, err := h.svc.ListLootboxes(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, boxes)
	return nil
}

func (h *httpHandler) openLootbox(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req monetization.OpenLootboxRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	result, err := h.svc.OpenLootbox(r.Context(), userID, &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, result)
	return nil
}

func (h *httpHandler) listBoosts(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	boosts, err := h.svc.ListBoosts(r.Context(), userID)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, boosts)
	return nil
}

func (h *httpHandler) listTasks(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	tasks, err := h.svc.ListTasks(r.Context(), userID)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, tasks)
	return nil
}

func (h *httpHandler) claimTaskReward(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req monetization.ClaimTaskRewardRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	result, err := h.svc.ClaimTaskReward(r.Context(), userID, req.TaskID)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, result)
	return nil
}
