package payment

import "context"

// Widget is an active payment tokenization surface. Implementations
// wrap a callback-based SDK into a single awaitable Submit so the
// checkout state machine has no callback nesting.
type Widget interface {
	// Submit exchanges the collected form for an opaque card token. It
	// must be awaited before any purchase request is issued.
	Submit(ctx context.Context, form *FormData) (*CardToken, error)

	// Close releases the widget's SDK resources. Idempotent.
	Close()
}

// WidgetFactory builds a fresh widget per ready_for_payment entry.
// Widgets are never reused across plan selections.
type WidgetFactory interface {
	NewWidget(cfg WidgetConfig) (Widget, error)
}
