package trigger

import (
	"log/slog"

	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/text"
)

// Option configures an engine.
type Option func(*options)

type options struct {
	role      Role
	logger    *slog.Logger
	metrics   *metrics.Metrics
	printer   *text.Printer
	observing bool
}

func defaultOptions() options {
	return options{
		role:      Authoritative,
		logger:    slog.Default(),
		printer:   text.Default(),
		observing: true,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRole sets the replica role. Default: Authoritative.
func WithRole(r Role) Option {
	return func(o *options) {
		o.role = r
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables instrumentation. A nil value disables it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPrinter sets the localization used by UpdateDetailedInfo.
// Default: English.
func WithPrinter(p *text.Printer) Option {
	return func(o *options) {
		if p != nil {
			o.printer = p
		}
	}
}

// WithObservingBlocks(false) configures an engine whose value comes from a
// single external measurement rather than a list of blocks (natural gravity).
// Raise then accepts keys that were never added and the detailed info shows
// one input line instead of per-block lines.
func WithObservingBlocks(observing bool) Option {
	return func(o *options) {
		o.observing = observing
	}
}
