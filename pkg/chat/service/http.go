package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/chat"
)

type httpHandler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers the conversation HTTP routes.
// Routes expect auth.Middleware to have populated the caller's identity.
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &httpHandler{
		svc:    svc,
		logger: logger,
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.listConversations))
		r.Post("/", apphttp.HandleError(h.createConversation))
		r.Get("/{id}/messages", apphttp.HandleError(h.listMessages))
		r.Post("/{id}/messages", apphttp.HandleError(h.sendMessage))
		r.Post("/{id}/read", apphttp.HandleError(h.markRead))
	})
}

func (h *httpHandler) sendMessage(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}
	conversationID, err := apphttp.IDParam(r, "id")
	if err != nil {
		return err
	}

	var req chat.SendMessageRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	req.ConversationID = conversationID
	req.SenderID = userID

	resp, err := h.svc.SendMessage(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, resp)
	return nil
}

func (h *httpHandler) createConversation(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	var req chat.CreateConversationRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	conv, err := h.svc.CreateConversation(r.Context(), userID, req.PerformerID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, conv)
	return nil
}

func (h *httpHandler) listConversations(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}

	convs, err := h.svc.ListConversations(r.Context(), userID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, convs)
	return nil
}

func (h *httpHandler) listMessages(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}
	conversationID, err := apphttp.IDParam(r, "id")
	if err != nil {
		return err
	}

	msgs, err := h.svc.ListMessages(r.Context(), userID, conversationID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, msgs)
	return nil
}

func (h *httpHandler) markRead(w http.ResponseWriter, r *http.Request) error {
	userID, err := auth.MustUserID(r)
	if err != nil {
		return err
	}
	conversationID, err := apphttp.IDParam(r, "id")
	if err != nil {
		return err
	}

	n, err := h.svc.MarkRead(r.Context(), userID, conversationID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
	return nil
}
