package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

const export = `[
  {"id": "big", "items": [{"name": "plov", "quantity": 6}]},
  {"id": "solo", "customer_name": "Aru", "status": "processing", "items": [{"name": "tea", "price": 1.5}]},
  {"id": "empty"}
]`

func TestLoadOrders(t *testing.T) {
	orders, err := LoadOrders(strings.NewReader(export))
	if err != nil {
		t.Fatalf("LoadOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].Status != domain.StatusPending || orders[1].Status != domain.StatusProcessing {
		t.Errorf("statuses = %s, %s", orders[0].Status, orders[1].Status)
	}
	if orders[1].TotalAmount != 1.5 {
		t.Errorf("total = %v", orders[1].TotalAmount)
	}
	if orders[2].Items != nil {
		t.Errorf("missing items must stay nil")
	}

	if _, err := LoadOrders(strings.NewReader(`[{"id":"x","status":"lost"}]`)); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := LoadOrders(strings.NewReader(`{`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestRender(t *testing.T) {
	orders, err := LoadOrders(strings.NewReader(export))
	if err != nil {
		t.Fatalf("LoadOrders: %v", err)
	}
	w := scheduler.DefaultWeights()
	s, err := scheduler.New(orders, w, scheduler.StrategyEnhanced)
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, s.OptimalSequence(), w); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	// empty (11.33) ranks before solo (11) before big (4.67).
	iEmpty, iSolo, iBig := strings.Index(out, "empty"), strings.Index(out, "solo"), strings.Index(out, "big")
	if iEmpty < 0 || iSolo < 0 || iBig < 0 || !(iEmpty < iSolo && iSolo < iBig) {
		t.Errorf("unexpected order in:\n%s", out)
	}
	for _, want := range []string{"RECOMMENDATION", "11.33", scheduler.RecommendComplex, "3 orders, 13 min of work"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
