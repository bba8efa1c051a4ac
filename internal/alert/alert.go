package alert

import (
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Notifier delivers operational alerts to whoever is on call.
type Notifier interface {
	Alert(class, message string)
}

type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.Named("alert")}
}

func (n *logNotifier) Alert(class, message string) {
	n.log.Error("operational alert",
		zap.String("class", class),
		zap.String("message", message),
	)
}

// RateLimited caps delivery at one alert per class per rolling window so an
// outage produces a page, not a storm.
type RateLimited struct {
	next   Notifier
	clock  clock.Clock
	window time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewRateLimited(next Notifier, clk clock.Clock, window time.Duration) *RateLimited {
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimited{
		next:     next,
		clock:    clk,
		window:   window,
		lastSent: make(map[string]time.Time),
	}
}

func (r *RateLimited) Alert(class, message string) {
	class = strings.TrimSpace(class)
	if class == "" {
		class = "unclassified"
	}

	now := r.clock.Now()
	r.mu.Lock()
	last, ok := r.lastSent[class]
	if ok && now.Sub(last) < r.window {
		r.mu.Unlock()
		return
	}
	r.lastSent[class] = now
	r.mu.Unlock()

	r.next.Alert(class, message)
}

var Module = fx.Module("alert",
	fx.Provide(func(log *zap.Logger, clk clock.Clock) Notifier {
		return NewRateLimited(NewLogNotifier(log), clk, time.Hour)
	}),
)
