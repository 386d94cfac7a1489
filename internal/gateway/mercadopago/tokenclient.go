package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/payment"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/httpclient"
	"github.com/propzen/billing/internal/logger"
)

// TokenExchanger converts collected card form data into an opaque
// single-use token. This is the PCI boundary: the payload is forwarded
// verbatim and never inspected.
type TokenExchanger interface {
	CreateToken(ctx context.Context, form *payment.FormData) (*payment.CardToken, error)
}

type cardTokenClient struct {
	baseURL   string
	publicKey string
	client    httpclient.Client
	logger    *logger.Logger
}

// NewCardTokenClient creates a TokenExchanger over the card token API.
// Only the public key is used; tokenization needs no secret credential.
func NewCardTokenClient(cfg *config.Configuration, log *logger.Logger) TokenExchanger {
	return &cardTokenClient{
		baseURL:   cfg.MercadoPago.BaseURL,
		publicKey: cfg.MercadoPago.PublicKey,
		client:    httpclient.NewDefaultClient(),
		logger:    log,
	}
}

func NewCardTokenClientWithHTTP(baseURL, publicKey string, client httpclient.Client, log *logger.Logger) TokenExchanger {
	return &cardTokenClient{
		baseURL:   baseURL,
		publicKey: publicKey,
		client:    client,
		logger:    log,
	}
}

type cardTokenResponse struct {
	ID              string `json:"id"`
	PaymentMethodID string `json:"payment_method_id"`
	IssuerID        string `json:"issuer_id"`
}

func (c *cardTokenClient) CreateToken(ctx context.Context, form *payment.FormData) (*payment.CardToken, error) {
	if form == nil || len(form.CardForm) == 0 {
		return nil, ierr.NewError("card form data is required").
			WithHint("Completá los datos de tu tarjeta para continuar").
			Mark(ierr.ErrValidation)
	}

	url := fmt.Sprintf("%s/v1/card_tokens?public_key=%s", c.baseURL, c.publicKey)

	var token *payment.CardToken
	operation := func() error {
		resp, err := c.client.Send(ctx, &httpclient.Request{
			Method: http.MethodPost,
			URL:    url,
			Body:   form.CardForm,
		})
		if err != nil {
			// A rejected tokenization never succeeds on retry; only
			// transport failures are worth another attempt. Unused
			// tokens from a retried request simply expire.
			if _, ok := httpclient.IsHTTPError(err); ok {
				return backoff.Permanent(err)
			}
			return err
		}

		var parsed cardTokenResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return backoff.Permanent(ierr.WithError(err).
				WithHint("No pudimos procesar los datos de tu tarjeta").
				Mark(ierr.ErrGateway))
		}
		if parsed.ID == "" {
			return backoff.Permanent(ierr.NewError("card token response missing id").
				WithHint("No pudimos procesar los datos de tu tarjeta").
				Mark(ierr.ErrGateway))
		}

		token = &payment.CardToken{
			Token:           parsed.ID,
			PaymentMethodID: parsed.PaymentMethodID,
			IssuerID:        parsed.IssuerID,
			PayerEmail:      form.PayerEmail,
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return nil, err
	}
	return token, nil
}
