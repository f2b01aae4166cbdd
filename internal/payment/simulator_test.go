package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "flightsim/internal/errors"
)

func TestSimulatorAlwaysApproves(t *testing.T) {
	gw := NewSimulator(Config{SuccessRate: 1.0}, 42)

	for i := 0; i < 50; i++ {
		res, err := gw.Charge(context.Background(), 199.99, "booking-test")
		require.NoError(t, err)
		assert.NotEmpty(t, res.TransactionID)
		assert.Equal(t, 199.99, res.Amount)
	}
}

func TestSimulatorAlwaysDeclines(t *testing.T) {
	gw := NewSimulator(Config{SuccessRate: 0}, 42)

	_, err := gw.Charge(context.Background(), 100, "booking-test")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
}

func TestSimulatorApproximatesSuccessRate(t *testing.T) {
	gw := NewSimulator(Config{SuccessRate: 0.95}, 7)

	const n = 2000
	approved := 0
	for i := 0; i < n; i++ {
		if _, err := gw.Charge(context.Background(), 100, "booking-test"); err == nil {
			approved++
		}
	}

	rate := float64(approved) / float64(n)
	assert.InDelta(t, 0.95, rate, 0.03)
}

func TestSimulatorRejectsNonPositiveAmount(t *testing.T) {
	gw := NewSimulator(Config{SuccessRate: 1.0}, 1)

	_, err := gw.Charge(context.Background(), 0, "booking-test")
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)

	_, err = gw.Charge(context.Background(), -10, "booking-test")
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
}

func TestSimulatorHonorsContextCancellation(t *testing.T) {
	gw := NewSimulator(Config{SuccessRate: 1.0}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Charge(ctx, 100, "booking-test")
	assert.ErrorIs(t, err, context.Canceled)
}
