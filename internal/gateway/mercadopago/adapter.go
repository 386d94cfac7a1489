package mercadopago

import (
	"context"
	"sync"
	"time"

	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/payment"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/logger"
)

// Brick adapts the callback-based card widget into the awaitable
// payment.Widget contract: one Submit call, one result, no callback
// nesting in the caller.
type Brick struct {
	cfg          payment.WidgetConfig
	controller   Controller
	exchanger    TokenExchanger
	readyTimeout time.Duration
	logger       *logger.Logger

	readyCh   chan struct{}
	errCh     chan error
	closeOnce sync.Once
}

func newBrick(
	cfg payment.WidgetConfig,
	controller Controller,
	exchanger TokenExchanger,
	readyTimeout time.Duration,
	log *logger.Logger,
) (*Brick, error) {
	b := &Brick{
		cfg:          cfg,
		controller:   controller,
		exchanger:    exchanger,
		readyTimeout: readyTimeout,
		logger:       log,
		readyCh:      make(chan struct{}),
		errCh:        make(chan error, 1),
	}

	var readyOnce sync.Once
	hooks := Hooks{
		OnReady: func() {
			readyOnce.Do(func() { close(b.readyCh) })
		},
		OnError: func(err error) {
			select {
			case b.errCh <- err:
			default:
			}
		},
	}

	if err := controller.Render(cfg, hooks); err != nil {
		return nil, ierr.WithError(err).
			WithHint("No pudimos inicializar el formulario de pago").
			Mark(ierr.ErrGateway)
	}
	return b, nil
}

// Submit waits for the widget to report ready, then exchanges the form
// for a card token. Widget errors raised through OnError win over the
// exchange result.
func (b *Brick) Submit(ctx context.Context, form *payment.FormData) (*payment.CardToken, error) {
	select {
	case <-b.readyCh:
	case err := <-b.errCh:
		return nil, ierr.WithError(err).
			WithHint("El formulario de pago falló al cargar").
			Mark(ierr.ErrGateway)
	case <-ctx.Done():
		return nil, ierr.WithError(ctx.Err()).Mark(ierr.ErrSystem)
	case <-time.After(b.readyTimeout):
		return nil, ierr.NewError("payment widget did not become ready").
			WithHint("El formulario de pago tardó demasiado en cargar").
			Mark(ierr.ErrGateway)
	}

	// Widget errors can surface at any point, including while the form
	// is being exchanged; race them against the exchange so they are
	// never masked by a token that the form no longer backs.
	type exchangeResult struct {
		token *payment.CardToken
		err   error
	}
	resultCh := make(chan exchangeResult, 1)
	go func() {
		token, err := b.exchanger.CreateToken(ctx, form)
		resultCh <- exchangeResult{token: token, err: err}
	}()

	select {
	case err := <-b.errCh:
		return nil, ierr.WithError(err).
			WithHint("El formulario de pago reportó un error").
			Mark(ierr.ErrGateway)
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		token := res.token
		if token.PayerEmail == "" {
			token.PayerEmail = b.cfg.PayerEmail
		}
		return token, nil
	}
}

// Close destroys the underlying widget. Idempotent.
func (b *Brick) Close() {
	b.closeOnce.Do(func() {
		b.controller.Destroy()
	})
}

// WidgetFactory builds a fresh Brick per checkout mount. Bricks are
// never reused because their amount/payer config is fixed at render.
type WidgetFactory struct {
	controllers  ControllerFactory
	exchanger    TokenExchanger
	readyTimeout time.Duration
	logger       *logger.Logger
}

func NewWidgetFactory(cfg *config.Configuration, exchanger TokenExchanger, log *logger.Logger) payment.WidgetFactory {
	return &WidgetFactory{
		controllers:  NewHostedController,
		exchanger:    exchanger,
		readyTimeout: cfg.Checkout.TokenizerReadyTimeout,
		logger:       log,
	}
}

// NewWidgetFactoryWithController allows injecting a scripted controller.
func NewWidgetFactoryWithController(
	controllers ControllerFactory,
	exchanger TokenExchanger,
	readyTimeout time.Duration,
	log *logger.Logger,
) payment.WidgetFactory {
	return &WidgetFactory{
		controllers:  controllers,
		exchanger:    exchanger,
		readyTimeout: readyTimeout,
		logger:       log,
	}
}

func (f *WidgetFactory) NewWidget(cfg payment.WidgetConfig) (payment.Widget, error) {
	return newBrick(cfg, f.controllers(), f.exchanger, f.readyTimeout, f.logger)
}
