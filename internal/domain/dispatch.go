package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Variant describes the request shape that produced a dispatch response.
type Variant struct {
	Path         string `json:"path"`
	AuthHeader   string `json:"auth_header"`
	PhoneField   string `json:"phone_field"`
	MessageField string `json:"message_field"`
}

// Dispatch is the outcome of delivering one message through the gateway.
type Dispatch struct {
	ID           uuid.UUID       `json:"attempt_id"`
	Phone        string          `json:"phone"`
	Message      string          `json:"message"`
	OK           bool            `json:"ok"`
	Status       int             `json:"status,omitempty"`
	Error        string          `json:"error,omitempty"`
	Body         json.RawMessage `json:"body,omitempty"`
	BodyError    string          `json:"body_error,omitempty"`
	MessageID    string          `json:"message_id,omitempty"`
	Variant      *Variant        `json:"variant,omitempty"`
	Attempts     int             `json:"attempts"`
	Inconclusive bool            `json:"inconclusive,omitempty"`
	Duration     time.Duration   `json:"-"`
}

func NewDispatch(phone, message string) Dispatch {
	return Dispatch{ID: uuid.New(), Phone: phone, Message: message}
}

func (d *Dispatch) Fail(err error) {
	d.OK = false
	d.Error = err.Error()
}
