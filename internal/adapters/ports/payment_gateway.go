package ports

import (
	"context"

	"github.com/kevin07696/donation-relay/internal/domain"
)

// PaymentGateway sends a signed sale to the external payment gateway.
//
// Implementations return a GatewayResult for every outcome that involved (or attempted)
// the network, including transport failures. An error is returned only when the request
// could not be prepared locally, before anything was sent.
type PaymentGateway interface {
	Sale(ctx context.Context, req *domain.CanonicalGatewayRequest) (*domain.GatewayResult, error)
}
