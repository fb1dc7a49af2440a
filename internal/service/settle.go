package service

import (
	"context"
	"sync"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Settlement struct {
	Approved bool
	Reason   string
}

// Settler decides the outcome of a payment attempt. It is called inside the
// payment transaction and must not block for long.
type Settler interface {
	Settle(ctx context.Context, p models.Payment) Settlement
}

type SettlerFunc func(ctx context.Context, p models.Payment) Settlement

func (f SettlerFunc) Settle(ctx context.Context, p models.Payment) Settlement {
	return f(ctx, p)
}

const DeclinedByBank = "payment declined by bank"

// CadenceSettler approves every attempt except each Nth one, which it
// declines. A zero or negative N approves everything.
type CadenceSettler struct {
	mu    sync.Mutex
	every int
	n     int
}

func NewCadenceSettler(every int) *CadenceSettler {
	return &CadenceSettler{every: every}
}

func (s *CadenceSettler) Settle(context.Context, models.Payment) Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()

	// counts attempts settled, including ones whose transaction later rolls back
	s.n++
	if s.every > 0 && s.n%s.every == 0 {
		return Settlement{Reason: DeclinedByBank}
	}
	return Settlement{Approved: true}
}
