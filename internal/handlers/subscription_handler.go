package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"mockprep/internal/middleware"
	"mockprep/internal/models"
	"mockprep/internal/utils"
)

const (
	SignatureHeader       = "Stripe-Signature"
	EventCheckoutComplete = "checkout.session.completed"

	maxWebhookBytes = 1 << 20
)

type SubscriptionHandler struct {
	reader        SubscriptionReader
	marker        SubscriptionMarker
	webhookSecret string
	logger        *zap.Logger
}

func NewSubscriptionHandler(reader SubscriptionReader, marker SubscriptionMarker, webhookSecret string, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		reader:        reader,
		marker:        marker,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// GetHandler returns the caller's subscription state, creating the default record on first read.
func (h *SubscriptionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.reader.State(r.Context(), middleware.Owner(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, state)
}

// WebhookHandler marks the purchaser subscribed on a completed checkout. Redelivery of
// the same event leaves the record unchanged; other event types are acknowledged.
func (h *SubscriptionHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Code: "webhook_disabled", Message: "payment webhook is not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_body", Message: "could not read body"})
		return
	}
	// the account's API version may differ from the one this SDK pins; only checkout fields are read
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get(SignatureHeader), h.webhookSecret,
		webhook.ConstructEventOptions{Tolerance: webhook.DefaultTolerance, IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("payment webhook rejected", zap.Error(err))
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_signature", Message: "Webhook Error: " + err.Error()})
		return
	}
	if string(event.Type) != EventCheckoutComplete {
		h.logger.Debug("payment event ignored", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		utils.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	var checkout stripe.CheckoutSession
	if event.Data == nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_json", Message: "Event carries no data"})
		return
	}
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_json", Message: "Invalid checkout session in event"})
		return
	}
	session := paymentSession(&checkout)
	email := utils.NormalizeEmail(session.Email())
	if email == "" {
		writeError(w, h.logger, &models.ValidationError{Field: "customer_email", Reason: "is required"})
		return
	}
	state, err := h.marker.MarkSubscribed(r.Context(), email, session.Tier(), session.Customer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("subscription activated",
		zap.String("event_id", event.ID),
		zap.String("owner", email),
		zap.String("tier", string(state.SubscriptionTier)))
	utils.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

func paymentSession(c *stripe.CheckoutSession) models.PaymentSession {
	s := models.PaymentSession{
		CustomerEmail: c.CustomerEmail,
		AmountTotal:   c.AmountTotal,
		Metadata:      c.Metadata,
	}
	if c.Customer != nil {
		s.Customer = c.Customer.ID
	}
	if c.CustomerDetails != nil {
		s.CustomerDetailsEmail = c.CustomerDetails.Email
	}
	return s
}
