// Package scheduler ranks a vendor's open orders so the kitchen knows what
// to prepare next.
//
// Scores depend on the total item quantity only. The basic strategy prefers
// orders with fewer items; the enhanced strategy wraps the basic score with a
// simplicity bonus and a penalty for orders whose estimated prep time exceeds
// the acceptable wait.
package scheduler

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

type Strategy string

const (
	StrategyBasic    Strategy = "basic"
	StrategyEnhanced Strategy = "enhanced"
)

var ErrUnknownStrategy = errors.New("unknown scheduling strategy")

// ParseStrategy maps a config value to a Strategy. Empty means enhanced.
func ParseStrategy(v string) (Strategy, error) {
	switch Strategy(v) {
	case "", StrategyEnhanced:
		return StrategyEnhanced, nil
	case StrategyBasic:
		return StrategyBasic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, v)
}

// PriorityResult is the scheduling metadata of one order.
type PriorityResult struct {
	OrderID           string        `json:"order_id"`
	Priority          float64       `json:"priority"`
	EstimatedPrepTime float64       `json:"estimated_prep_time"`
	Complexity        float64       `json:"complexity"`
	ItemCount         int           `json:"item_count"`
	Status            domain.Status `json:"status"`
}

type scoreFunc func(itemCount int) float64

func basicScore(w Weights) scoreFunc {
	return func(n int) float64 {
		return w.BasePriority - w.ItemCountWeight*float64(n)
	}
}

func enhancedScore(w Weights, base scoreFunc) scoreFunc {
	return func(n int) float64 {
		bonus := w.SimplicityFactor * (1 / w.Complexity(n))
		penalty := math.Max(0, w.PrepTime(n)-w.MaxAcceptableWait) * w.WaitTimeFactor
		return base(n) + bonus - penalty
	}
}

// Scheduler ranks one snapshot of orders. It keeps no state beyond the
// snapshot and its weights and is not meant to be shared between passes.
type Scheduler struct {
	orders  []domain.Order
	counts  []int
	weights Weights
	score   scoreFunc
}

// New validates the weights and takes a snapshot of orders. A nil or empty
// slice is valid and yields empty results.
func New(orders []domain.Order, w Weights, strategy Strategy) (*Scheduler, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var score scoreFunc
	switch strategy {
	case StrategyBasic:
		score = basicScore(w)
	case StrategyEnhanced:
		score = enhancedScore(w, basicScore(w))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	snapshot := slices.Clone(orders)
	counts := make([]int, len(snapshot))
	for i, o := range snapshot {
		counts[i] = TotalQuantity(o)
	}

	return &Scheduler{
		orders:  snapshot,
		counts:  counts,
		weights: w,
		score:   score,
	}, nil
}

// EstimatePreparationTime returns minutes: base prep time plus total quantity.
func (s *Scheduler) EstimatePreparationTime(o domain.Order) float64 {
	return s.weights.PrepTime(TotalQuantity(o))
}

// CalculatePriorityScore scores an order with the configured strategy.
// Higher means sooner.
func (s *Scheduler) CalculatePriorityScore(o domain.Order) float64 {
	return s.score(TotalQuantity(o))
}

// CalculateComplexityScore returns the band multiplier of an order.
func (s *Scheduler) CalculateComplexityScore(o domain.Order) float64 {
	return s.weights.Complexity(TotalQuantity(o))
}

// rank returns snapshot indexes by descending score. Equal scores keep the
// input order.
func (s *Scheduler) rank() ([]int, []float64) {
	scores := make([]float64, len(s.orders))
	idx := make([]int, len(s.orders))
	for i, n := range s.counts {
		scores[i] = s.score(n)
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	return idx, scores
}

// PrioritizeOrders returns a new slice of the snapshot orders, highest
// priority first.
func (s *Scheduler) PrioritizeOrders() []domain.Order {
	idx, _ := s.rank()
	out := make([]domain.Order, len(idx))
	for i, j := range idx {
		out[i] = s.orders[j]
	}
	return out
}

// OptimalSequence returns scheduling metadata in PrioritizeOrders order.
func (s *Scheduler) OptimalSequence() []PriorityResult {
	idx, scores := s.rank()
	out := make([]PriorityResult, len(idx))
	for i, j := range idx {
		n := s.counts[j]
		out[i] = PriorityResult{
			OrderID:           s.orders[j].ID,
			Priority:          scores[j],
			EstimatedPrepTime: s.weights.PrepTime(n),
			Complexity:        s.weights.Complexity(n),
			ItemCount:         n,
			Status:            s.orders[j].Status,
		}
	}
	return out
}
