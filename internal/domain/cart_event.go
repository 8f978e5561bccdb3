package domain

import "strings"

const (
	DefaultCustomerName   = "cliente"
	DefaultCartProduct    = "Seu produto"
	DefaultOrderProduct   = "Produto"
	DefaultPrice          = "R$ 0,00"
	EventCheckoutAbandon  = "checkout.abandoned"
	EventOrderUpdated     = "order.updated"
	abandonmentEventToken = "abandoned"
)

type PayloadShape string

const (
	PayloadShapeAbandonment PayloadShape = "abandonment"
	PayloadShapeOrder       PayloadShape = "order"
)

// CartEvent is the canonical record extracted from any accepted webhook shape.
// Every field holds a usable value after extraction; OrderID, PhoneRaw and
// CheckoutURL are the only ones that may be empty.
type CartEvent struct {
	OrderID           string
	EventKind         string
	Shape             PayloadShape
	CustomerName      string
	CustomerFirstName string
	PhoneRaw          string
	ProductTitle      string
	PriceDisplay      string
	CheckoutURL       string
}

// IsAbandonment reports whether the event should trigger a recovery message.
// Only the event name decides; the payload shape does not.
func (e CartEvent) IsAbandonment() bool {
	return strings.Contains(strings.ToLower(e.EventKind), abandonmentEventToken)
}

// Fields returns the placeholder values available to message templates.
func (e CartEvent) Fields(brand string) map[string]string {
	return map[string]string{
		"order_id":     e.OrderID,
		"name":         e.CustomerName,
		"first_name":   e.CustomerFirstName,
		"product":      e.ProductTitle,
		"price":        e.PriceDisplay,
		"checkout_url": e.CheckoutURL,
		"cart_url":     e.CheckoutURL,
		"brand":        brand,
	}
}
