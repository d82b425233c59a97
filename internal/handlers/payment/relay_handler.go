package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/domain"
	"github.com/kevin07696/donation-relay/pkg/encoding"
	"github.com/kevin07696/donation-relay/pkg/observability"
)

// MaxBodyBytes caps the inbound donation body
const MaxBodyBytes = 64 << 10

// RelayService runs one relay invocation for a POST body
type RelayService interface {
	Handle(ctx context.Context, body []byte) (*domain.GatewayResult, error)
}

// errorEnvelope is the body of every non-200 relay response
type errorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// RelayHandler exposes the payment relay over HTTP
type RelayHandler struct {
	relay  RelayService
	logger *zap.Logger
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(relay RelayService, logger *zap.Logger) *RelayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayHandler{
		relay:  relay,
		logger: logger,
	}
}

// ServeHTTP handles POST (relay), OPTIONS (pre-flight) and rejects everything else.
// Endpoint: POST /fiserv-payment {"amount": 50, "currency": "USD", "orderId": "...", "description": "..."}
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		observability.RecordRelayRequest(observability.OutcomePreflight, time.Since(start).Seconds())
		return
	case http.MethodPost:
	default:
		h.logger.Warn("Relay received unsupported method",
			zap.String("method", r.Method),
		)
		w.Header().Set("Allow", "POST, OPTIONS")
		h.writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: domain.MsgMethodNotAllowed})
		observability.RecordRelayRequest(observability.OutcomeMethodNotAllowed, time.Since(start).Seconds())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.Warn("Relay body too large", zap.Int64("limit", maxErr.Limit))
		}
		h.writeError(w, domain.NewValidationError(domain.MsgMissingPaymentFields), start)
		return
	}

	result, err := h.relay.Handle(r.Context(), body)
	if err != nil {
		h.writeError(w, err, start)
		return
	}

	outcome := observability.OutcomeForwarded
	if result.IsTransportFailure() {
		outcome = observability.OutcomeTransportError
	}
	observability.RecordRelayRequest(outcome, time.Since(start).Seconds())

	h.writeJSON(w, http.StatusOK, result)
}

// writeError maps a domain error to its relay status and caller-facing message
func (h *RelayHandler) writeError(w http.ResponseWriter, err error, start time.Time) {
	status, outcome := http.StatusInternalServerError, observability.OutcomeInternalError

	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeValidation:
		status, outcome = http.StatusBadRequest, observability.OutcomeValidationError
	case domain.ErrorCodeConfiguration:
		outcome = observability.OutcomeConfigError
	case domain.ErrorCodeMethodNotAllowed:
		status, outcome = http.StatusMethodNotAllowed, observability.OutcomeMethodNotAllowed
	default:
		h.logger.Error("Relay failed", zap.Error(err))
	}

	observability.RecordRelayRequest(outcome, time.Since(start).Seconds())
	h.writeJSON(w, status, errorEnvelope{Error: domain.PublicMessage(err)})
}

func (h *RelayHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := encoding.EncodeJSON(v)
	if err != nil {
		h.logger.Error("Failed to encode relay response", zap.Error(err))
		status = http.StatusInternalServerError
		payload = []byte(`{"ok":false,"error":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Debug("Failed to write relay response", zap.Error(err))
	}
}
