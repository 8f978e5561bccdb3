package service

import (
	"context"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/cartpanda"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/message"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/phone"
)

// State is the terminal state of one webhook request.
type State string

const (
	StateInvalidPayload    State = "invalid_payload"
	StateIgnored           State = "ignored"
	StateRejectedNoPhone   State = "rejected_no_phone"
	StateAlreadySent       State = "already_sent"
	StateDispatchAttempted State = "dispatch_attempted"
)

const (
	ActionIgnored           = "ignored"
	ActionAlreadySent       = "already_sent"
	ActionWhatsAppSent      = "whatsapp_sent"
	ActionWhatsAppFailed    = "whatsapp_failed"
	ActionWhatsAppAttempted = "whatsapp_attempted"
)

// Response is the body returned to the checkout platform for every webhook.
type Response struct {
	OK       bool             `json:"ok"`
	Action   string           `json:"action,omitempty"`
	Error    string           `json:"error,omitempty"`
	Event    string           `json:"event,omitempty"`
	OrderID  *string          `json:"order_id"`
	Provider string           `json:"provider,omitempty"`
	Result   *domain.Dispatch `json:"result,omitempty"`
	State    State            `json:"-"`
}

type CartRecoveryService struct {
	sender   messageSender
	store    sentOrderStore
	renderer *message.Renderer
	brand    string
}

// NewCartRecoveryService wires the recovery flow. A nil store disables
// duplicate suppression.
func NewCartRecoveryService(sender messageSender, store sentOrderStore, renderer *message.Renderer, brand string) *CartRecoveryService {
	return &CartRecoveryService{
		sender:   sender,
		store:    store,
		renderer: renderer,
		brand:    brand,
	}
}

// HandleWebhook runs one webhook body through the recovery flow. It never
// returns an error: every outcome is described by the response.
func (s *CartRecoveryService) HandleWebhook(ctx context.Context, body []byte) Response {
	resp := s.handle(ctx, body)
	metrics.WebhookEventsTotal.WithLabelValues(resp.metricLabel()).Inc()
	return resp
}

func (s *CartRecoveryService) handle(ctx context.Context, body []byte) Response {
	log := logging.FromContext(ctx)

	ev, err := cartpanda.Extract(body)
	if err != nil {
		log.Warn("webhook payload rejected", "error", err)
		return Response{OK: false, Error: domain.ErrInvalidPayload.Error(), State: StateInvalidPayload}
	}

	orderID := optional(ev.OrderID)
	log = log.With("order_id", ev.OrderID, "event", ev.EventKind)
	log.Info("webhook classified", "shape", ev.Shape)

	if !ev.IsAbandonment() {
		return Response{OK: true, Action: ActionIgnored, Event: ev.EventKind, OrderID: orderID, State: StateIgnored}
	}

	claimed, dup := s.claim(ctx, ev.OrderID)
	if dup {
		log.Info("order already sent, skipping")
		metrics.DedupHitsTotal.Inc()
		return Response{OK: true, Action: ActionAlreadySent, OrderID: orderID, State: StateAlreadySent}
	}

	normalized, err := phone.Normalize(ev.PhoneRaw)
	if err != nil {
		log.Warn("invalid customer phone", "phone_raw", logging.MaskPhone(phone.Digits(ev.PhoneRaw)))
		if claimed {
			s.release(ctx, ev.OrderID)
		}
		return Response{OK: false, Error: domain.ErrInvalidPhone.Error(), OrderID: orderID, State: StateRejectedNoPhone}
	}

	text := s.renderer.Render(message.Values(ev.Fields(s.brand)))
	d := s.sender.Send(ctx, normalized, text)

	log.Info("whatsapp dispatch finished",
		"phone", logging.MaskPhone(normalized),
		"ok", d.OK,
		"status", d.Status,
		"attempts", d.Attempts,
		"variant", d.Variant,
		"duration_ms", d.Duration.Milliseconds(),
		"error", d.Error,
	)

	if !d.OK && claimed {
		s.release(ctx, ev.OrderID)
	}

	return Response{
		OK:       d.OK,
		Action:   dispatchAction(d),
		OrderID:  orderID,
		Provider: s.sender.Provider(),
		Result:   &d,
		State:    StateDispatchAttempted,
	}
}

// claim marks the order as in flight. dup reports that another request
// already holds or completed it. Store failures let the send through
// without a claim.
func (s *CartRecoveryService) claim(ctx context.Context, orderID string) (claimed, dup bool) {
	if s.store == nil || orderID == "" {
		return false, false
	}

	added, err := s.store.Mark(ctx, orderID)
	if err != nil {
		logging.FromContext(ctx).Error("dedup store unavailable, sending without guard",
			"order_id", orderID,
			"error", err,
		)
		return false, false
	}
	return added, !added
}

func (s *CartRecoveryService) release(ctx context.Context, orderID string) {
	if err := s.store.Forget(context.WithoutCancel(ctx), orderID); err != nil {
		logging.FromContext(ctx).Error("failed to release order claim",
			"order_id", orderID,
			"error", err,
		)
	}
}

func dispatchAction(d domain.Dispatch) string {
	switch {
	case d.OK:
		return ActionWhatsAppSent
	case d.Inconclusive:
		return ActionWhatsAppAttempted
	default:
		return ActionWhatsAppFailed
	}
}

func (r Response) metricLabel() string {
	if r.Action != "" {
		return r.Action
	}
	return string(r.State)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
