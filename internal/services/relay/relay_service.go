package relay

import (
	"context"

	"github.com/kevin07696/donation-relay/internal/adapters/ports"
	"github.com/kevin07696/donation-relay/internal/config"
	"github.com/kevin07696/donation-relay/internal/domain"
	"github.com/kevin07696/donation-relay/pkg/observability"
	"github.com/kevin07696/donation-relay/pkg/resilience"
)

// Service relays a donation payment to the gateway and normalizes the reply
type Service struct {
	config   config.GatewayConfig
	gateway  ports.PaymentGateway
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewService creates a new relay service
func NewService(
	cfg config.GatewayConfig,
	gateway ports.PaymentGateway,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Service {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if timeouts == nil {
		timeouts = resilience.NewTimeoutConfig(cfg.Timeout)
	}
	return &Service{
		config:   cfg,
		gateway:  gateway,
		logger:   logger,
		timeouts: timeouts,
	}
}

// Handle runs one relay invocation for a POST body.
//
// Configuration and validation problems are returned as domain errors and the
// gateway is not contacted. Anything the gateway answers, and any transport
// failure, comes back as a GatewayResult with a nil error.
func (s *Service) Handle(ctx context.Context, body []byte) (*domain.GatewayResult, error) {
	if err := s.config.Validate(); err != nil {
		s.logger.Error("payment gateway is not configured", ports.Err(err))
		return nil, err
	}

	req, err := ParsePaymentRequest(body)
	if err != nil {
		s.logger.Warn("rejected payment request",
			ports.String("reason", domain.PublicMessage(err)),
		)
		return nil, err
	}

	gatewayReq := domain.NewCanonicalGatewayRequest(req, s.config.StoreID, s.config.NotificationURL)

	ctx, cancelService := s.timeouts.ServiceContext(ctx)
	defer cancelService()

	callCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()

	result, err := s.gateway.Sale(callCtx, gatewayReq)
	if err != nil {
		s.logger.Error("failed to prepare gateway request", ports.Err(err))
		return nil, err
	}

	observability.RecordGatewayResponse(result.Status, result.IsTransportFailure())
	if !result.IsTransportFailure() {
		observability.RecordForwardedAmount(req.Currency, result.OK, req.Amount.Round(2).Shift(2).InexactFloat64())
	}

	s.logger.Info("payment relayed",
		ports.String("order_id", req.OrderID),
		ports.String("total", gatewayReq.TransactionAmount.Total),
		ports.String("currency", req.Currency),
		ports.Int("gateway_status", result.Status),
		ports.Bool("ok", result.OK),
	)

	return result, nil
}
