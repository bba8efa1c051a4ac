package alert

import (
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
)

type captureNotifier struct {
	delivered []string
}

func (n *captureNotifier) Alert(class, message string) {
	n.delivered = append(n.delivered, class)
}

func TestRateLimitedDeliversOncePerWindow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	next := &captureNotifier{}
	limited := NewRateLimited(next, clk, time.Hour)

	limited.Alert("webhook_dispatch", "first failure")
	limited.Alert("webhook_dispatch", "second failure")
	limited.Alert("webhook_dispatch", "third failure")

	if len(next.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(next.delivered))
	}

	clk.Advance(30 * time.Minute)
	limited.Alert("webhook_dispatch", "still inside window")
	if len(next.delivered) != 1 {
		t.Fatalf("expected suppression inside window, got %d deliveries", len(next.delivered))
	}

	clk.Advance(31 * time.Minute)
	limited.Alert("webhook_dispatch", "window rolled over")
	if len(next.delivered) != 2 {
		t.Fatalf("expected 2 deliveries after window, got %d", len(next.delivered))
	}
}

func TestRateLimitedTracksClassesIndependently(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	next := &captureNotifier{}
	limited := NewRateLimited(next, clk, time.Hour)

	limited.Alert("webhook_dispatch", "dispatch failed")
	limited.Alert("mailer", "smtp refused")
	limited.Alert("", "no class given")

	if len(next.delivered) != 3 {
		t.Fatalf("expected 3 deliveries across classes, got %d", len(next.delivered))
	}
	if next.delivered[2] != "unclassified" {
		t.Fatalf("expected unclassified fallback, got %s", next.delivered[2])
	}
}
