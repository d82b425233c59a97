package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when the caller does not send one
const DefaultCurrency = "USD"

// TransactionTypeSale is the only transaction type the relay issues
const TransactionTypeSale = "SALE"

// Amount shape limits, checked before any comparison or rounding:
// 1e60000000 is a 10-byte literal that expands to sixty million digits.
const (
	MaxAmountIntegerDigits  = 10
	MaxAmountFractionDigits = 32
)

// MaxAmount is the largest total the relay forwards (1,000,000,000.00)
var MaxAmount = decimal.New(1, 9)

// PaymentRequest is the caller's donation intent after validation
type PaymentRequest struct {
	Amount      decimal.Decimal // positive, at most MaxAmount, at least one cent after rounding
	Currency    string `validate:"required,iso4217"`
	OrderID     string `validate:"max=64"`
	Description string `validate:"max=255"`
}

// TransactionAmount is the amount block of the gateway request
type TransactionAmount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// CanonicalGatewayRequest is the exact body signed and sent to the gateway.
// Field order here is the serialized order; optional fields are omitted, never null.
type CanonicalGatewayRequest struct {
	TransactionAmount          TransactionAmount `json:"transactionAmount"`
	TransactionType            string            `json:"transactionType"`
	StoreID                    string            `json:"storeId,omitempty"`
	OrderID                    string            `json:"orderId,omitempty"`
	TransactionNotificationURL string            `json:"transactionNotificationURL,omitempty"`
	HostedPaymentPageText      string            `json:"hostedPaymentPageText,omitempty"`
}

// NewCanonicalGatewayRequest builds the gateway body from a validated request
// and the optional store settings.
func NewCanonicalGatewayRequest(req *PaymentRequest, storeID, notificationURL string) *CanonicalGatewayRequest {
	return &CanonicalGatewayRequest{
		TransactionAmount: TransactionAmount{
			Total:    FormatTotal(req.Amount),
			Currency: req.Currency,
		},
		TransactionType:            TransactionTypeSale,
		StoreID:                    storeID,
		OrderID:                    req.OrderID,
		TransactionNotificationURL: notificationURL,
		HostedPaymentPageText:      req.Description,
	}
}

// FormatTotal renders an amount with exactly two decimals, rounding half away from zero.
// 50 -> "50.00", 49.995 -> "50.00", 0.30000000000000004 -> "0.30".
func FormatTotal(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ResponseKind tags how the gateway body was interpreted
type ResponseKind string

const (
	ResponseKindJSON ResponseKind = "json"
	ResponseKindText ResponseKind = "text"
	ResponseKindNone ResponseKind = "none"
)

// ResponseData is the gateway body (or a local error description).
// Exactly one of JSON or Text is meaningful, chosen by Kind.
type ResponseData struct {
	Kind ResponseKind
	JSON json.RawMessage
	Text string
}

// NewResponseData classifies a raw gateway body. Empty bodies become none,
// well-formed JSON is kept verbatim, anything else is kept as text.
func NewResponseData(body []byte) ResponseData {
	if len(body) == 0 {
		return ResponseData{Kind: ResponseKindNone}
	}
	if json.Valid(body) {
		raw := make(json.RawMessage, len(body))
		copy(raw, body)
		return ResponseData{Kind: ResponseKindJSON, JSON: raw}
	}
	return ResponseData{Kind: ResponseKindText, Text: string(body)}
}

// TextData wraps a plain description, used for local transport failures
func TextData(text string) ResponseData {
	return ResponseData{Kind: ResponseKindText, Text: text}
}

// MarshalJSON renders the union as its bare value: object/array/scalar, string, or null
func (d ResponseData) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case ResponseKindJSON:
		return d.JSON, nil
	case ResponseKindText:
		return json.Marshal(d.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores the union; strings become text, null becomes none
func (d *ResponseData) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
		*d = ResponseData{Kind: ResponseKindNone}
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = TextData(s)
	default:
		*d = NewResponseData([]byte(trimmed))
	}
	return nil
}

// GatewayResult is returned to the caller with relay status 200.
// OK reflects the gateway's HTTP status only, not business approval.
type GatewayResult struct {
	OK     bool         `json:"ok"`
	Status int          `json:"status"`
	Data   ResponseData `json:"data"`

	local bool
}

// IsTransportFailure reports whether the gateway was never reached
func (r *GatewayResult) IsTransportFailure() bool {
	return r.local
}

// LocalTransportStatus is reported when the gateway could not be reached
const LocalTransportStatus = 500

// NewTransportFailureResult describes an outbound call that did not complete
func NewTransportFailureResult(description string) *GatewayResult {
	return &GatewayResult{
		OK:     false,
		Status: LocalTransportStatus,
		Data:   TextData(description),
		local:  true,
	}
}
