package scheduler

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultWeightsValid(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(w *Weights)
		field string
	}{
		{"zero multiplier", func(w *Weights) { w.ItemComplexity.MediumOrder = 0 }, "item_complexity.medium_order"},
		{"decreasing bands", func(w *Weights) { w.ItemComplexity.LargeOrder = 1.2 }, "item_complexity"},
		{"nan simplicity", func(w *Weights) { w.SimplicityFactor = math.NaN() }, "simplicity_factor"},
		{"zero wait factor", func(w *Weights) { w.WaitTimeFactor = 0 }, "wait_time_factor"},
		{"negative max wait", func(w *Weights) { w.MaxAcceptableWait = -5 }, "max_acceptable_wait"},
		{"negative base prep", func(w *Weights) { w.BasePrepMinutes = -1 }, "base_prep_minutes"},
		{"infinite base priority", func(w *Weights) { w.BasePriority = math.Inf(1) }, "base_priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.edit(&w)
			err := w.Validate()
			if !errors.Is(err, ErrInvalidWeights) {
				t.Fatalf("expected ErrInvalidWeights, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field+":") {
				t.Fatalf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestWeightsValidateReportsAll(t *testing.T) {
	w := Weights{}
	err := w.Validate()
	if err == nil {
		t.Fatal("expected an error for zero weights")
	}
	for _, field := range []string{"single_item", "small_order", "simplicity_factor", "wait_time_factor", "max_acceptable_wait"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestPrepTimeIgnoresComplexity(t *testing.T) {
	w := DefaultWeights()
	w.ItemComplexity = ItemComplexity{SingleItem: 5, SmallOrder: 6, MediumOrder: 7, LargeOrder: 8}
	if got := w.PrepTime(3); got != 5 {
		t.Fatalf("PrepTime(3) = %v, want 5", got)
	}
}
