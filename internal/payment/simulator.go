package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	apperrors "flightsim/internal/errors"
)

// Config controls the simulated payment gateway.
type Config struct {
	// SuccessRate is the probability in [0,1] that a charge succeeds.
	SuccessRate float64
}

// Result describes a settled charge.
type Result struct {
	TransactionID string
	Amount        float64
}

// Gateway authorizes charges. The production implementation would talk
// to a PSP; here it is always the simulator.
type Gateway interface {
	Charge(ctx context.Context, amount float64, reference string) (*Result, error)
}

// Simulator approves a configurable fraction of charges at random.
// Declines return ErrPaymentDeclined so callers can roll back.
type Simulator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

// NewSimulator builds a gateway with the given success rate, clamped to
// [0,1]. seed fixes the outcome sequence for tests; pass 0 for a
// time-based seed.
func NewSimulator(cfg Config, seed int64) *Simulator {
	rate := cfg.SuccessRate
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &Simulator{
		rng:         rand.New(src),
		successRate: rate,
	}
}

// Charge simulates a card authorization.
func (s *Simulator) Charge(ctx context.Context, amount float64, reference string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid charge amount %.2f: %w", amount, apperrors.ErrPaymentDeclined)
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll >= s.successRate {
		return nil, fmt.Errorf("charge %s declined: %w", reference, apperrors.ErrPaymentDeclined)
	}

	return &Result{
		TransactionID: uuid.New().String(),
		Amount:        amount,
	}, nil
}
