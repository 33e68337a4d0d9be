package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestJSONLoggerEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("queue-service", &buf)

	l.Info("queue_refreshed", "Queue refreshed", "req-1", map[string]interface{}{"shop_id": "s1"})
	l.Error("db_error", "Failed to load orders", "", map[string]interface{}{"order_id": "o7"},
		fmt.Errorf("failed to load open orders: %w", errors.New("connection reset")))

	var entries []LogEntry
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	info := entries[0]
	if info.Level != "INFO" || info.Service != "queue-service" || info.Action != "queue_refreshed" || info.RequestID != "req-1" {
		t.Errorf("unexpected info entry: %+v", info)
	}
	if info.Details["shop_id"] != "s1" || info.ShopID != "s1" {
		t.Errorf("shop_id = %q, details = %v", info.ShopID, info.Details)
	}
	if info.Error != nil {
		t.Errorf("info entry carries an error: %+v", info.Error)
	}

	errEntry := entries[1]
	if errEntry.Level != LevelError || errEntry.OrderID != "o7" || errEntry.RequestID != "" {
		t.Errorf("unexpected error entry: %+v", errEntry)
	}
	if errEntry.Error == nil || errEntry.Error.Msg != "failed to load open orders: connection reset" {
		t.Fatalf("error = %+v", errEntry.Error)
	}
	if len(errEntry.Error.Chain) != 1 || errEntry.Error.Chain[0] != "connection reset" {
		t.Errorf("chain = %v", errEntry.Error.Chain)
	}
}
