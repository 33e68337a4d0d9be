package amqp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type fakeQueue struct {
	refreshed []string
	err       error
}

func (q *fakeQueue) GetQueue(context.Context, string) (*interfaces.QueueSnapshot, error) {
	return nil, nil
}

func (q *fakeQueue) Next(context.Context, string) (*interfaces.QueueEntry, error) { return nil, nil }

func (q *fakeQueue) Refresh(_ context.Context, shopID string) (*interfaces.QueueSnapshot, error) {
	q.refreshed = append(q.refreshed, shopID)
	return &interfaces.QueueSnapshot{ShopID: shopID}, q.err
}

func (q *fakeQueue) Invalidate(context.Context, string) error { return nil }

func TestHandleOrderEvent(t *testing.T) {
	q := &fakeQueue{}
	h := NewOrderEventHandler(q, logger.Discard())
	ctx := context.Background()

	if err := h.HandleOrderEvent(ctx, []byte(`{"order_id":"o1","shop_id":"s1","event":"placed","status":"pending"}`)); err != nil {
		t.Fatalf("HandleOrderEvent: %v", err)
	}
	if len(q.refreshed) != 1 || q.refreshed[0] != "s1" {
		t.Errorf("refreshed = %v", q.refreshed)
	}

	err := h.HandleOrderEvent(ctx, []byte(`{"order_id":"o2"}`))
	if !errors.Is(err, ErrMissingShop) || !errors.Is(err, interfaces.ErrMalformedMessage) {
		t.Errorf("expected malformed ErrMissingShop, got %v", err)
	}
	if err := h.HandleOrderEvent(ctx, []byte(`not json`)); !errors.Is(err, interfaces.ErrMalformedMessage) {
		t.Errorf("expected malformed message error, got %v", err)
	}

	q.err = errors.New("db down")
	err = h.HandleOrderEvent(ctx, []byte(`{"order_id":"o3","shop_id":"s2"}`))
	if !errors.Is(err, q.err) || errors.Is(err, interfaces.ErrMalformedMessage) {
		t.Errorf("expected retryable refresh error, got %v", err)
	}
}

func TestHandleStatusUpdate(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(logger.Discard())
	h.out = &out

	body := `{"order_id":"o1","old_status":"pending","new_status":"processing","changed_by":"chef-1",` +
		`"estimated_completion":"2026-03-01T12:05:00Z"}`
	if err := h.HandleStatusUpdate(context.Background(), []byte(body)); err != nil {
		t.Fatalf("HandleStatusUpdate: %v", err)
	}

	got := out.String()
	want := "Notification for order o1: Status changed from 'pending' to 'processing' by chef-1, ready around 12:05PM\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if err := h.HandleStatusUpdate(context.Background(), []byte(`{`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestHandleQueueUpdate(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(logger.Discard())
	h.out = &out
	ctx := context.Background()

	body := `{"shop_id":"s1","total_prep_minutes":16,"entries":[` +
		`{"order_id":"o2","recommendation":"Quick order - Process immediately"},{"order_id":"o1"}]}`
	if err := h.HandleQueueUpdate(ctx, []byte(body)); err != nil {
		t.Fatalf("HandleQueueUpdate: %v", err)
	}
	if err := h.HandleQueueUpdate(ctx, []byte(`{"shop_id":"s2","entries":[]}`)); err != nil {
		t.Fatalf("HandleQueueUpdate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "Queue for shop s1: 2 orders, 16 min of work, next up o2 (Quick order - Process immediately)" {
		t.Errorf("line = %q", lines[0])
	}
	if lines[1] != "Queue for shop s2 is empty" {
		t.Errorf("line = %q", lines[1])
	}
}
