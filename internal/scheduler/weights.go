package scheduler

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidWeights = errors.New("invalid scheduler weights")

// Band is the complexity class of an order, derived from its item count.
type Band string

const (
	BandSingleItem  Band = "single_item"
	BandSmallOrder  Band = "small_order"
	BandMediumOrder Band = "medium_order"
	BandLargeOrder  Band = "large_order"
)

// BandFor classifies an item count. Only a count of exactly one is a single
// item order, so an empty order lands in the small band.
func BandFor(itemCount int) Band {
	switch {
	case itemCount == 1:
		return BandSingleItem
	case itemCount <= 3:
		return BandSmallOrder
	case itemCount <= 5:
		return BandMediumOrder
	default:
		return BandLargeOrder
	}
}

// ItemComplexity holds the multiplier of every band.
type ItemComplexity struct {
	SingleItem  float64 `yaml:"single_item" json:"single_item"`
	SmallOrder  float64 `yaml:"small_order" json:"small_order"`
	MediumOrder float64 `yaml:"medium_order" json:"medium_order"`
	LargeOrder  float64 `yaml:"large_order" json:"large_order"`
}

// Weights configures one scheduling pass.
type Weights struct {
	ItemComplexity ItemComplexity `yaml:"item_complexity" json:"item_complexity"`

	// SimplicityFactor scales the inverse-complexity bonus.
	SimplicityFactor float64 `yaml:"simplicity_factor" json:"simplicity_factor"`
	// WaitTimeFactor scales the penalty for prep time beyond MaxAcceptableWait.
	WaitTimeFactor float64 `yaml:"wait_time_factor" json:"wait_time_factor"`
	// MaxAcceptableWait is in minutes.
	MaxAcceptableWait float64 `yaml:"max_acceptable_wait" json:"max_acceptable_wait"`

	// BasePrepMinutes is added to the total item quantity to estimate prep time.
	BasePrepMinutes float64 `yaml:"base_prep_minutes" json:"base_prep_minutes"`
	// BasePriority and ItemCountWeight define the basic score:
	// BasePriority - ItemCountWeight*itemCount.
	BasePriority    float64 `yaml:"base_priority" json:"base_priority"`
	ItemCountWeight float64 `yaml:"item_count_weight" json:"item_count_weight"`
}

// DefaultWeights returns the weights the kitchen queue ships with.
func DefaultWeights() Weights {
	return Weights{
		ItemComplexity: ItemComplexity{
			SingleItem:  1,
			SmallOrder:  1.5,
			MediumOrder: 2,
			LargeOrder:  3,
		},
		SimplicityFactor:  2,
		WaitTimeFactor:    0.5,
		MaxAcceptableWait: 15,
		BasePrepMinutes:   2,
		BasePriority:      10,
		ItemCountWeight:   1,
	}
}

// Multiplier returns the configured multiplier of a band.
func (w Weights) Multiplier(b Band) float64 {
	switch b {
	case BandSingleItem:
		return w.ItemComplexity.SingleItem
	case BandSmallOrder:
		return w.ItemComplexity.SmallOrder
	case BandMediumOrder:
		return w.ItemComplexity.MediumOrder
	default:
		return w.ItemComplexity.LargeOrder
	}
}

// Complexity returns the complexity score for an item count.
func (w Weights) Complexity(itemCount int) float64 {
	return w.Multiplier(BandFor(itemCount))
}

// PrepTime returns the estimated preparation minutes for an item count.
func (w Weights) PrepTime(itemCount int) float64 {
	return w.BasePrepMinutes + float64(itemCount)
}

// ValidationError describes a single weight that cannot be used.
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Validate reports every problem at once. The returned error wraps
// ErrInvalidWeights.
func (w Weights) Validate() error {
	var errs []error

	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be a finite number > 0, got %v", v)})
		}
	}
	nonNegative := func(field string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be a finite number >= 0, got %v", v)})
		}
	}

	ic := w.ItemComplexity
	positive("item_complexity.single_item", ic.SingleItem)
	positive("item_complexity.small_order", ic.SmallOrder)
	positive("item_complexity.medium_order", ic.MediumOrder)
	positive("item_complexity.large_order", ic.LargeOrder)

	if ic.SingleItem > ic.SmallOrder || ic.SmallOrder > ic.MediumOrder || ic.MediumOrder > ic.LargeOrder {
		errs = append(errs, ValidationError{
			Field: "item_complexity",
			Message: fmt.Sprintf("multipliers must not decrease with band, got %v/%v/%v/%v",
				ic.SingleItem, ic.SmallOrder, ic.MediumOrder, ic.LargeOrder),
		})
	}

	positive("simplicity_factor", w.SimplicityFactor)
	positive("wait_time_factor", w.WaitTimeFactor)
	positive("max_acceptable_wait", w.MaxAcceptableWait)
	nonNegative("base_prep_minutes", w.BasePrepMinutes)
	nonNegative("item_count_weight", w.ItemCountWeight)
	if math.IsNaN(w.BasePriority) || math.IsInf(w.BasePriority, 0) {
		errs = append(errs, ValidationError{Field: "base_priority", Message: fmt.Sprintf("must be finite, got %v", w.BasePriority)})
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidWeights, errors.Join(errs...))
}
