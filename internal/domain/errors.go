package domain

import "errors"

var (
	ErrInvalidPhone         = errors.New("telefone inválido")
	ErrInvalidPayload       = errors.New("payload inválido")
	ErrGatewayNotConfigured = errors.New("gateway not configured")
	ErrGatewayUnreachable   = errors.New("gateway unreachable")
	ErrGatewayRejected      = errors.New("gateway rejected message")
	ErrNoRouteFound         = errors.New("no gateway route answered")
	ErrInternal             = errors.New("erro interno")
)
