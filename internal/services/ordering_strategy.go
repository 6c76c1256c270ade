// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for payoff ordering. Each
// strategy decides, once per simulation, which loan receives budget first.
package services

import (
	"fmt"
	"sort"
	"sync"

	"debtplan/internal/core"
)

// Orderer is the strategy interface for payoff priority.
// Order returns the indices of loans in the order they are paid; it must
// not modify loans.
type Orderer interface {
	Order(loans []core.Loan) []int
}

// OrdererFunc adapts a plain function to Orderer.
type OrdererFunc func(loans []core.Loan) []int

func (f OrdererFunc) Order(loans []core.Loan) []int { return f(loans) }

// AvalancheOrderer pays the highest annual rate first.
type AvalancheOrderer struct{}

func (AvalancheOrderer) Order(loans []core.Loan) []int {
	return stableOrder(loans, func(a, b core.Loan) bool {
		return a.AnnualRatePercent > b.AnnualRatePercent
	})
}

// SnowballOrderer pays the smallest outstanding balance first.
type SnowballOrderer struct{}

func (SnowballOrderer) Order(loans []core.Loan) []int {
	return stableOrder(loans, func(a, b core.Loan) bool {
		return a.OutstandingBalance < b.OutstandingBalance
	})
}

// stableOrder sorts indices by less; ties keep input order.
func stableOrder(loans []core.Loan, less func(a, b core.Loan) bool) []int {
	idx := make([]int, len(loans))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return less(loans[idx[i]], loans[idx[j]])
	})
	return idx
}

var (
	orderersMu sync.RWMutex
	orderers   = map[core.Strategy]Orderer{
		core.Avalanche: AvalancheOrderer{},
		core.Snowball:  SnowballOrderer{},
	}
)

// GetOrderer returns the orderer registered for a strategy.
func GetOrderer(strategy core.Strategy) (Orderer, error) {
	orderersMu.RLock()
	defer orderersMu.RUnlock()
	o, ok := orderers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownStrategy, strategy)
	}
	return o, nil
}

// RegisterOrderer adds or replaces the orderer for a strategy name.
func RegisterOrderer(strategy core.Strategy, o Orderer) {
	orderersMu.Lock()
	defer orderersMu.Unlock()
	orderers[strategy] = o
}
