package service

import (
	"errors"
	"testing"

	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/billing"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(t *testing.T) ErrorTranslator {
	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)
	return NewErrorTranslator(log)
}

func TestTranslateGatewayCodes(t *testing.T) {
	translator := newTestTranslator(t)

	tests := []struct {
		code      string
		category  types.ErrorCategory
		retryable bool
	}{
		{billing.ErrCodeCardTokenRequired, types.ErrorCategoryClientValidation, false},
		{billing.ErrCodeNoSubscription, types.ErrorCategoryStateConflict, false},
		{billing.ErrCodePlanNotFound, types.ErrorCategoryStateConflict, false},
		{billing.ErrCodeNotAnUpgrade, types.ErrorCategoryUnsupportedTransition, false},
		{billing.ErrCodeMPSubscriptionError, types.ErrorCategoryGatewayError, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := translator.Translate(billing.NewGatewayError(tt.code, "backend detail", 422))
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.retryable, got.Retryable)
			// The raw backend message never reaches the UI.
			assert.NotContains(t, got.Message, "backend detail")
			assert.Equal(t, categoryMessages[tt.category], got.Message)
		})
	}
}

func TestTranslateUnknownGatewayCode(t *testing.T) {
	translator := newTestTranslator(t)

	got := translator.Translate(billing.NewGatewayError("SOMETHING_NEW", "??", 500))
	assert.Equal(t, types.ErrorCategoryUnknownError, got.Category)
	assert.True(t, got.Retryable)
}

func TestTranslateSentinelErrors(t *testing.T) {
	translator := newTestTranslator(t)

	tests := []struct {
		name      string
		err       error
		category  types.ErrorCategory
		retryable bool
	}{
		{
			name:      "validation",
			err:       ierr.NewError("bad input").Mark(ierr.ErrValidation),
			category:  types.ErrorCategoryClientValidation,
			retryable: false,
		},
		{
			name:      "unsupported transition",
			err:       ierr.NewError("downgrade").Mark(ierr.ErrUnsupportedTransition),
			category:  types.ErrorCategoryUnsupportedTransition,
			retryable: false,
		},
		{
			name:      "state conflict",
			err:       ierr.NewError("subscription moved").Mark(ierr.ErrStateConflict),
			category:  types.ErrorCategoryStateConflict,
			retryable: false,
		},
		{
			name:      "gateway",
			err:       ierr.NewError("bad upstream response").Mark(ierr.ErrGateway),
			category:  types.ErrorCategoryGatewayError,
			retryable: true,
		},
		{
			name:      "plain network error",
			err:       errors.New("dial tcp: connection refused"),
			category:  types.ErrorCategoryUnknownError,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translator.Translate(tt.err)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestTranslateNil(t *testing.T) {
	translator := newTestTranslator(t)
	assert.Nil(t, translator.Translate(nil))
}
