// Package cartpanda turns CartPanda webhook bodies into canonical cart events.
//
// The platform has shipped several incompatible payload shapes over time.
// Extraction never refuses a JSON object: each field is resolved from an
// ordered list of candidate locations and falls back to a fixed default.
package cartpanda

import (
	"fmt"
	"strings"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
)

const defaultName = domain.DefaultCustomerName

// Extract parses body and returns its canonical record. The only error is
// domain.ErrInvalidPayload, for bodies that are not a JSON object.
func Extract(body []byte) (domain.CartEvent, error) {
	root, ok := parseDocument(body)
	if !ok {
		return domain.CartEvent{}, fmt.Errorf("Extract: %w", domain.ErrInvalidPayload)
	}

	switch classify(root) {
	case domain.PayloadShapeAbandonment:
		return extractAbandonment(root), nil
	default:
		return extractOrder(root), nil
	}
}

func classify(root value) domain.PayloadShape {
	if root.get("data").isObject() {
		return domain.PayloadShapeAbandonment
	}
	if strings.Contains(strings.ToLower(firstText(root.get("event"))), "abandoned") {
		return domain.PayloadShapeAbandonment
	}
	return domain.PayloadShapeOrder
}

func extractAbandonment(root value) domain.CartEvent {
	scope := firstObject(root.get("data"), root.get("order"), root)
	block := firstObject(scope.get("customer"), scope.get("customer_info"), root.get("customer"))
	cust := resolveCustomer(block, scope, block.get("full_name"), fullName(block), block.get("name"))
	item := firstLineItem(scope)

	return domain.CartEvent{
		OrderID:           firstText(scope.get("id"), scope.get("order_id"), scope.get("cart_id"), root.get("id")),
		EventKind:         eventKind(root, domain.EventCheckoutAbandon),
		Shape:             domain.PayloadShapeAbandonment,
		CustomerName:      cust.name,
		CustomerFirstName: cust.firstName,
		PhoneRaw:          cust.phone,
		ProductTitle:      orDefault(itemTitle(item), domain.DefaultCartProduct),
		PriceDisplay:      priceDisplay(item, scope),
		CheckoutURL:       checkoutURL(root, scope),
	}
}

func extractOrder(root value) domain.CartEvent {
	order := firstObject(root.get("order"), root)
	block := firstObject(order.get("customer"), order.get("customer_info"), root.get("customer"))
	cust := resolveCustomer(block, order, block.get("name"), block.get("full_name"), fullName(block))
	item := firstLineItem(order)

	return domain.CartEvent{
		OrderID:           firstText(order.get("id"), order.get("order_id"), order.get("number")),
		EventKind:         eventKind(root, firstText(order.get("status")), domain.EventOrderUpdated),
		Shape:             domain.PayloadShapeOrder,
		CustomerName:      cust.name,
		CustomerFirstName: cust.firstName,
		PhoneRaw:          cust.phone,
		ProductTitle:      orDefault(itemTitle(item), domain.DefaultOrderProduct),
		PriceDisplay:      priceDisplay(item, order),
		CheckoutURL:       checkoutURL(root, order),
	}
}

func eventKind(root value, fallbacks ...string) string {
	candidates := []value{root.get("event")}
	for _, f := range fallbacks {
		candidates = append(candidates, literal(f))
	}
	return strings.ToLower(firstText(candidates...))
}
