package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/adapters/fiserv"
	"github.com/kevin07696/donation-relay/internal/config"
	"github.com/kevin07696/donation-relay/internal/services/relay"
	"github.com/kevin07696/donation-relay/pkg/encoding"
	pkghttp "github.com/kevin07696/donation-relay/pkg/http"
	"github.com/kevin07696/donation-relay/pkg/resilience"
	"github.com/kevin07696/donation-relay/pkg/security"
)

type chargeFlags struct {
	amount      string
	currency    string
	orderID     string
	description string
	verbose     bool
}

func chargeCmd() *cobra.Command {
	var flags chargeFlags

	cmd := &cobra.Command{
		Use:   "charge",
		Short: "Send one sale through the relay using the environment configuration",
		Long: `Run a single relay invocation against FISERV_PAYMENTS_URL with the
FISERV_* environment settings and print the {ok, status, data} result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if flags.verbose {
				if logger, err = security.NewLogger("debug", true); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}
			portsLogger := security.NewZapLogger(logger)

			timeouts := resilience.NewTimeoutConfig(cfg.Gateway.Timeout)
			gateway := fiserv.NewPaymentAdapter(
				fiserv.AuthConfig{APIKey: cfg.Gateway.APIKey, APISecret: cfg.Gateway.APISecret},
				cfg.Gateway.PaymentsURL,
				pkghttp.NewHTTPClient(pkghttp.FiservClientConfig(), timeouts.ExternalAPI),
				portsLogger,
			)
			service := relay.NewService(cfg.Gateway, gateway, portsLogger, timeouts)

			body, err := flags.requestBody()
			if err != nil {
				return err
			}

			ctx, cancel := timeouts.HandlerContext(cmd.Context())
			defer cancel()

			result, err := service.Handle(ctx, body)
			if err != nil {
				return err
			}

			buf, err := encoding.EncodeJSON(result)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf)
			return err
		},
	}

	cmd.Flags().StringVar(&flags.amount, "amount", "", "Donation amount, e.g. 25.00")
	cmd.Flags().StringVar(&flags.currency, "currency", "", "ISO 4217 currency code (default USD)")
	cmd.Flags().StringVar(&flags.orderID, "order-id", "", "Merchant order reference")
	cmd.Flags().StringVar(&flags.description, "description", "", "Text shown on the hosted payment page")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log the outbound call to stderr")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// requestBody builds the same JSON a browser caller would POST
func (f *chargeFlags) requestBody() ([]byte, error) {
	payload := map[string]string{"amount": f.amount}
	if f.currency != "" {
		payload["currency"] = f.currency
	}
	if f.orderID != "" {
		payload["orderId"] = f.orderID
	}
	if f.description != "" {
		payload["description"] = f.description
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return body, nil
}
