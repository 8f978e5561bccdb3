package service

import (
	"context"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
)

type messageSender interface {
	Send(ctx context.Context, phone, message string) domain.Dispatch
	Provider() string
}

type sentOrderStore interface {
	Mark(ctx context.Context, orderID string) (bool, error)
	Forget(ctx context.Context, orderID string) error
}
