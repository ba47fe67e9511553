package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/handlers"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/response"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, raw body))
const SignatureHeader = "X-Payment-Signature"

// WebhookHandler receives payment-succeeded events from the payment provider
type WebhookHandler struct {
	payments *services.PaymentService
	secret   []byte
	log      *logger.Logger
}

func NewWebhookHandler(payments *services.PaymentService, secret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		secret:   []byte(secret),
		log:      log.With("handler", "payment_webhook"),
	}
}

// Webhook handles POST /api/v1/webhooks/payments. Redeliveries answer 200 so the provider stops retrying.
func (h *WebhookHandler) Webhook(c *fiber.Ctx) error {
	if len(h.secret) == 0 {
		h.log.Error("Payment webhook called but PAYMENT_WEBHOOK_SECRET is not set")
		return response.ServiceUnavailable(c, "Payment webhook not configured")
	}

	body := c.Body()
	if !Verify(h.secret, body, c.Get(SignatureHeader)) {
		h.log.Warn("Rejected payment webhook with bad signature", "ip", c.IP())
		return response.Unauthorized(c, "Invalid signature")
	}

	var event services.PaymentSucceededEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequest(c, "Invalid event payload")
	}

	outcome, err := h.payments.HandlePaymentSucceeded(c.UserContext(), event)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, outcome)
}

// Sign returns the signature a provider must send for body
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the signature in constant time; a "sha256=" prefix is accepted
func Verify(secret, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(Sign(secret, body))
	return hmac.Equal(got, want)
}
