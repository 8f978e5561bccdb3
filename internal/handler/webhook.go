package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/service"
)

const maxWebhookBody = 1 << 20

type cartRecoveryService interface {
	HandleWebhook(ctx context.Context, body []byte) service.Response
}

type WebhookHandler struct {
	recovery cartRecoveryService
}

func NewWebhookHandler(recovery cartRecoveryService) *WebhookHandler {
	return &WebhookHandler{recovery: recovery}
}

// ReceiveCartPanda always answers 200; outcomes are reported in the body.
func (h *WebhookHandler) ReceiveCartPanda(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		log.Warn("failed to read webhook body", "error", err)
		RespondFailure(w, domain.ErrInvalidPayload, nil)
		return
	}
	if len(body) > maxWebhookBody {
		log.Warn("webhook body too large", "limit_bytes", maxWebhookBody)
		RespondFailure(w, domain.ErrInvalidPayload, nil)
		return
	}

	log.Info("cartpanda webhook received", "bytes", len(body))

	resp := h.recovery.HandleWebhook(r.Context(), body)
	RespondJSON(w, http.StatusOK, resp)
}
