package scheduler

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

// order builds a pending order with one item per quantity given.
func order(id string, quantities ...int) domain.Order {
	items := make([]domain.OrderItem, len(quantities))
	for i, q := range quantities {
		items[i] = domain.OrderItem{Name: "item", Quantity: q, Price: 1}
	}
	return domain.Order{ID: id, Items: items, Status: domain.StatusPending, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func mustNew(t *testing.T, orders []domain.Order, strategy Strategy) *Scheduler {
	t.Helper()
	s, err := New(orders, DefaultWeights(), strategy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestEstimatePreparationTime(t *testing.T) {
	s := mustNew(t, nil, StrategyEnhanced)

	tests := []struct {
		name string
		o    domain.Order
		want float64
	}{
		{"three of one item", order("a", 3), 5},
		{"empty items", domain.Order{ID: "b", Items: []domain.OrderItem{}}, 2},
		{"nil items", domain.Order{ID: "c"}, 2},
		{"missing quantity counts once", order("d", 0, 2), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.EstimatePreparationTime(tt.o); !approx(got, tt.want) {
				t.Errorf("EstimatePreparationTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComplexityBanding(t *testing.T) {
	s := mustNew(t, nil, StrategyEnhanced)
	w := DefaultWeights()

	tests := []struct {
		count int
		band  Band
		want  float64
	}{
		{0, BandSmallOrder, w.ItemComplexity.SmallOrder}, // strict single-item boundary
		{1, BandSingleItem, w.ItemComplexity.SingleItem},
		{2, BandSmallOrder, w.ItemComplexity.SmallOrder},
		{3, BandSmallOrder, w.ItemComplexity.SmallOrder},
		{4, BandMediumOrder, w.ItemComplexity.MediumOrder},
		{5, BandMediumOrder, w.ItemComplexity.MediumOrder},
		{6, BandLargeOrder, w.ItemComplexity.LargeOrder},
		{42, BandLargeOrder, w.ItemComplexity.LargeOrder},
	}
	for _, tt := range tests {
		if got := BandFor(tt.count); got != tt.band {
			t.Errorf("BandFor(%d) = %s, want %s", tt.count, got, tt.band)
		}
		o := domain.Order{ID: "x"}
		if tt.count > 0 {
			o = order("x", tt.count)
		}
		if got := s.CalculateComplexityScore(o); !approx(got, tt.want) {
			t.Errorf("complexity(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestCalculatePriorityScore(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		o        domain.Order
		want     float64
	}{
		{"basic single", StrategyBasic, order("a", 1), 9},
		{"basic six", StrategyBasic, order("b", 6), 4},
		// 9 + 2/1
		{"enhanced single", StrategyEnhanced, order("c", 1), 11},
		// 8 + 2/1.5
		{"enhanced two", StrategyEnhanced, order("d", 2), 8 + 2/1.5},
		// 4 + 2/3
		{"enhanced six", StrategyEnhanced, order("e", 6), 4 + 2.0/3},
		// -10 + 2/3 - (22-15)*0.5
		{"enhanced penalised", StrategyEnhanced, order("f", 20), -10 + 2.0/3 - 3.5},
		// 10 + 2/1.5, empty orders fall into the small band
		{"enhanced empty", StrategyEnhanced, domain.Order{ID: "g"}, 10 + 2/1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustNew(t, nil, tt.strategy)
			if got := s.CalculatePriorityScore(tt.o); !approx(got, tt.want) {
				t.Errorf("CalculatePriorityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitPenaltyFollowsPrepEstimate(t *testing.T) {
	big := order("big", 20)

	strict := mustNew(t, nil, StrategyEnhanced)
	w := DefaultWeights()
	w.MaxAcceptableWait = 30
	relaxed, err := New(nil, w, StrategyEnhanced)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got, want := relaxed.CalculatePriorityScore(big)-strict.CalculatePriorityScore(big), 3.5; !approx(got, want) {
		t.Fatalf("penalty difference = %v, want %v", got, want)
	}

	// Elapsed time since creation plays no part.
	old := big
	old.CreatedAt = time.Now().Add(-3 * time.Hour)
	if strict.CalculatePriorityScore(old) != strict.CalculatePriorityScore(big) {
		t.Fatal("score changed with elapsed wait")
	}
}

func TestPriorityNonIncreasingInItemCount(t *testing.T) {
	for _, strategy := range []Strategy{StrategyBasic, StrategyEnhanced} {
		s := mustNew(t, nil, strategy)
		prev := s.CalculatePriorityScore(domain.Order{})
		for n := 1; n <= 40; n++ {
			got := s.CalculatePriorityScore(order("x", n))
			if got > prev+eps {
				t.Fatalf("%s: score(%d) = %v > score(%d) = %v", strategy, n, got, n-1, prev)
			}
			prev = got
		}
	}
}

func TestSimplerOrderRanksHigher(t *testing.T) {
	s := mustNew(t, nil, StrategyEnhanced)
	one, four := order("one", 1), order("four", 4)

	if s.CalculateComplexityScore(one) > s.CalculateComplexityScore(four) {
		t.Fatal("single item order is more complex than a four item order")
	}
	if s.CalculatePriorityScore(one) < s.CalculatePriorityScore(four) {
		t.Fatal("single item order ranks below a four item order")
	}
}

func TestPrioritizeOrdersStable(t *testing.T) {
	orders := []domain.Order{
		order("b1", 2),
		order("big", 6),
		order("b2", 1, 1), // same total as b1
		order("single", 1),
		order("b3", 2),
	}
	s := mustNew(t, orders, StrategyEnhanced)

	got := ids(s.PrioritizeOrders())
	want := []string{"single", "b1", "b2", "b3", "big"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PrioritizeOrders() = %v, want %v", got, want)
	}
}

func TestPrioritizeOrdersDoesNotMutateInput(t *testing.T) {
	orders := []domain.Order{order("slow", 9), order("fast", 0)}
	s := mustNew(t, orders, StrategyEnhanced)

	ranked := s.PrioritizeOrders()
	if ranked[0].ID != "fast" {
		t.Fatalf("expected fast first, got %v", ids(ranked))
	}
	if orders[0].ID != "slow" || orders[1].ID != "fast" {
		t.Fatalf("input reordered: %v", ids(orders))
	}
	if orders[1].Items[0].Quantity != 0 {
		t.Fatalf("input quantity rewritten to %d", orders[1].Items[0].Quantity)
	}
}

func TestOptimalSequenceDeterministic(t *testing.T) {
	orders := []domain.Order{order("a", 3), order("b", 1), order("c", 2, 2, 2), order("d", 1)}
	s := mustNew(t, orders, StrategyEnhanced)

	first := s.OptimalSequence()
	for i := 0; i < 5; i++ {
		if again := s.OptimalSequence(); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first, again)
		}
	}
}

func TestOptimalSequenceEmpty(t *testing.T) {
	for _, orders := range [][]domain.Order{nil, {}} {
		s := mustNew(t, orders, StrategyEnhanced)
		if got := s.OptimalSequence(); len(got) != 0 {
			t.Fatalf("expected empty sequence, got %v", got)
		}
		if got := s.PrioritizeOrders(); len(got) != 0 {
			t.Fatalf("expected no orders, got %v", got)
		}
	}
}

func TestOptimalSequenceMalformedOrder(t *testing.T) {
	s := mustNew(t, []domain.Order{{ID: "ghost"}}, StrategyEnhanced)

	seq := s.OptimalSequence()
	if len(seq) != 1 {
		t.Fatalf("expected one result, got %d", len(seq))
	}
	r := seq[0]
	if r.ItemCount != 0 {
		t.Errorf("ItemCount = %d, want 0", r.ItemCount)
	}
	for name, v := range map[string]float64{"priority": r.Priority, "prep": r.EstimatedPrepTime, "complexity": r.Complexity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want a finite number", name, v)
		}
	}
}

func TestOptimalSequenceScenario(t *testing.T) {
	now := time.Now()
	a := order("A", 1)
	a.CreatedAt = now
	b := order("B", 6)
	b.CreatedAt = now
	c := order("C", 2)
	c.CreatedAt = now.Add(-40 * time.Minute)

	s := mustNew(t, []domain.Order{b, c, a}, StrategyEnhanced)
	seq := s.OptimalSequence()

	got := make([]string, len(seq))
	for i, r := range seq {
		got[i] = r.OrderID
	}
	if want := []string{"A", "C", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sequence = %v, want %v", got, want)
	}

	// C's prep estimate (4 min) is under the acceptable wait, so no penalty
	// applies despite it being placed 40 minutes ago.
	cRes := seq[1]
	if !approx(cRes.Priority, 8+2/1.5) {
		t.Errorf("C priority = %v, want %v", cRes.Priority, 8+2/1.5)
	}
	if cRes.EstimatedPrepTime != 4 || cRes.ItemCount != 2 || cRes.Complexity != 1.5 {
		t.Errorf("C metadata = %+v", cRes)
	}
	if cRes.Status != domain.StatusPending {
		t.Errorf("C status = %s", cRes.Status)
	}
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	w := DefaultWeights()
	w.ItemComplexity.SingleItem = 0
	w.WaitTimeFactor = -1

	_, err := New([]domain.Order{order("a", 1)}, w, StrategyEnhanced)
	if !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a ValidationError in %v", err)
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	if _, err := New(nil, DefaultWeights(), Strategy("fifo")); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyEnhanced, false},
		{"enhanced", StrategyEnhanced, false},
		{"basic", StrategyBasic, false},
		{"lifo", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
