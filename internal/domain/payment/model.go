package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CardToken is the opaque reference a PCI-compliant tokenizer yields in
// exchange for raw card data. The checkout flow only ever sees this.
type CardToken struct {
	Token           string `json:"token"`
	PaymentMethodID string `json:"payment_method_id"`
	IssuerID        string `json:"issuer_id"`
	PayerEmail      string `json:"payer_email"`
}

// FormData is the payload collected by the payment widget. It is passed
// through to the tokenizer verbatim and never inspected here; raw card
// fields stay on the far side of the PCI boundary.
type FormData struct {
	PayerEmail string          `json:"payer_email"`
	CardForm   json.RawMessage `json:"card_form,omitempty"`
}

// WidgetConfig is fixed at mount time. The widget's internal amount and
// payer configuration is immutable after construction, which is why a
// fresh widget is mounted for every plan selection.
type WidgetConfig struct {
	AmountARS  decimal.Decimal
	PayerEmail string
}
