package relay

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/donation-relay/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// inboundPayment is the caller's JSON body. Fields stay raw so that numbers and
// numeric strings are both accepted and the exact decimal text is preserved.
type inboundPayment struct {
	Amount      json.RawMessage `json:"amount"`
	Currency    json.RawMessage `json:"currency"`
	OrderID     json.RawMessage `json:"orderId"`
	Description json.RawMessage `json:"description"`
}

// ParsePaymentRequest decodes and validates a caller body into a PaymentRequest.
// Every failure is a validation error carrying a caller-facing message.
func ParsePaymentRequest(body []byte) (*domain.PaymentRequest, error) {
	var in inboundPayment
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.NewValidationError(domain.MsgMissingPaymentFields)
	}

	amount, err := parseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	currency, ok := optionalText(in.Currency)
	if !ok {
		return nil, domain.NewValidationError(domain.MsgInvalidCurrency)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	orderID, ok := optionalText(in.OrderID)
	if !ok {
		return nil, domain.NewValidationError("Invalid orderId")
	}
	description, ok := optionalText(in.Description)
	if !ok {
		return nil, domain.NewValidationError("Invalid description")
	}

	req := &domain.PaymentRequest{
		Amount:      amount,
		Currency:    currency,
		OrderID:     orderID,
		Description: description,
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}

// parseAmount accepts a JSON number or a numeric string.
// Absent, null, empty and zero are all "missing"; anything else that is not a
// non-negative number is invalid.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Decimal{}, domain.NewValidationError(domain.MsgMissingPaymentFields)
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, domain.NewValidationError(domain.MsgInvalidAmount)
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return decimal.Decimal{}, domain.NewValidationError(domain.MsgMissingPaymentFields)
		}
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError(domain.MsgInvalidAmount)
	}
	if amount.IsZero() {
		return decimal.Decimal{}, domain.NewValidationError(domain.MsgMissingPaymentFields)
	}
	if amount.IsNegative() || !withinBounds(amount) {
		return decimal.Decimal{}, domain.NewValidationError(domain.MsgInvalidAmount)
	}
	// 0.001 would be sent as a zero-value sale
	if amount.Round(2).IsZero() {
		return decimal.Decimal{}, domain.NewValidationError(domain.MsgInvalidAmount)
	}
	return amount, nil
}

// withinBounds checks digit counts first; comparing or rounding a decimal
// with a huge exponent rescales it to every digit.
func withinBounds(amount decimal.Decimal) bool {
	exp := int64(amount.Exponent())
	if exp < -domain.MaxAmountFractionDigits {
		return false
	}
	if int64(amount.NumDigits())+exp > domain.MaxAmountIntegerDigits {
		return false
	}
	return !amount.GreaterThan(domain.MaxAmount)
}

// optionalText reads an optional string-ish field. Falsy values (null, false, 0, "")
// count as absent; other numbers are kept as their JSON text; objects, arrays and
// true are rejected.
func optionalText(raw json.RawMessage) (string, bool) {
	text := strings.TrimSpace(string(raw))
	switch {
	case text == "" || text == "null" || text == "false":
		return "", true
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		if d, err := decimal.NewFromString(n.String()); err == nil && d.IsZero() {
			return "", true
		}
		return n.String(), true
	}
}

// validateStruct maps validator failures to caller-facing messages
func validateStruct(req *domain.PaymentRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return domain.NewValidationError(domain.MsgMissingPaymentFields)
	}

	fe := validationErrors[0]
	switch fe.StructField() {
	case "Currency":
		return domain.NewValidationError(domain.MsgInvalidCurrency)
	case "OrderID":
		return domain.NewValidationError("orderId must be at most " + fe.Param() + " characters long")
	case "Description":
		return domain.NewValidationError("description must be at most " + fe.Param() + " characters long")
	default:
		return domain.NewValidationError(domain.MsgMissingPaymentFields)
	}
}
