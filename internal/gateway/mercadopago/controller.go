package mercadopago

import (
	"github.com/propzen/billing/internal/domain/payment"
)

// Hooks is the callback surface of the card payment widget SDK. The
// widget drives these; nothing here is called by the checkout flow
// directly.
type Hooks struct {
	OnReady func()
	OnError func(err error)
}

// Controller is the embedded payment widget. Its amount and payer
// configuration is fixed at render time and cannot change afterwards.
type Controller interface {
	Render(cfg payment.WidgetConfig, hooks Hooks) error
	Destroy()
}

// ControllerFactory builds a fresh controller per widget mount.
type ControllerFactory func() Controller

// hostedController is the server-side rendition of the hosted card
// widget: the form itself lives in the tenant's browser, so the
// controller reports ready as soon as it is rendered.
type hostedController struct {
	hooks Hooks
}

func NewHostedController() Controller {
	return &hostedController{}
}

func (c *hostedController) Render(cfg payment.WidgetConfig, hooks Hooks) error {
	c.hooks = hooks
	if hooks.OnReady != nil {
		hooks.OnReady()
	}
	return nil
}

func (c *hostedController) Destroy() {}
