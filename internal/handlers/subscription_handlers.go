package handlers

import (
	"net/http"
	"time"

	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
)

func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var req dto.CreateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.Subscriptions.Create(r.Context(), req.Name, req.TimeZone)
	if err != nil {
		serviceError(w, r, "create subscription", err)
		return
	}
	logOut("Subscription created", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("subscription", dto.FromSubscription(sub)))
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	sub, err := h.Subscriptions.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, "get subscription", err)
		return
	}
	logOut("Subscription found", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("subscription", dto.FromSubscription(sub)))
}

func (h *Handler) UpdateTimeZone(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	var req dto.UpdateTimeZoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.Subscriptions.UpdateTimeZone(r.Context(), id, req.TimeZone)
	if err != nil {
		serviceError(w, r, "update time zone", err)
		return
	}
	logOut("Time zone updated", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("subscription", dto.FromSubscription(sub)))
}
