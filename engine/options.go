package engine

import (
	"github.com/salvego/salve/logging"
	"github.com/salvego/salve/salveerr"
)

// config holds the resolved constructor options (spec.md §5.2's
// functional-options convention, matching the teacher stack's
// Option/applyOptions pattern).
type config struct {
	prefix         string
	maxTimespan    int
	walkerCacheGap EventIndex
	walkerCacheMax int
	logger         logging.Logger
}

func defaultConfig() *config {
	return &config{
		prefix:         "",
		maxTimespan:    256,
		walkerCacheGap: 64,
		walkerCacheMax: 128,
		logger:         logging.Noop(),
	}
}

// Option configures a Validator at construction time.
type Option func(*config) error

// WithPrefix qualifies every annotation key this Validator stamps, so more
// than one validator can run annotations over the same node space without
// collision.
func WithPrefix(prefix string) Option {
	return func(c *config) error {
		c.prefix = prefix
		return nil
	}
}

// WithMaxTimespan bounds how many traversal steps a single scheduler cycle
// performs before yielding (spec.md §4.4). Must be positive.
func WithMaxTimespan(steps int) Option {
	return func(c *config) error {
		if steps <= 0 {
			return &salveerr.ConfigError{Option: "maxTimespan", Value: steps, Message: "must be positive"}
		}
		c.maxTimespan = steps
		return nil
	}
}

// WithWalkerCacheGap sets the minimum event-index spacing between walker
// cache insertions (spec.md §4.2). Must be positive.
func WithWalkerCacheGap(gap int) Option {
	return func(c *config) error {
		if gap <= 0 {
			return &salveerr.ConfigError{Option: "walkerCacheGap", Value: gap, Message: "must be positive"}
		}
		c.walkerCacheGap = EventIndex(gap)
		return nil
	}
}

// WithWalkerCacheMax bounds the number of entries the walker cache holds
// before evicting the oldest unprotected entry. Must be positive.
func WithWalkerCacheMax(max int) Option {
	return func(c *config) error {
		if max <= 0 {
			return &salveerr.ConfigError{Option: "walkerCacheMax", Value: max, Message: "must be positive"}
		}
		c.walkerCacheMax = max
		return nil
	}
}

// WithLogger installs a structured logger for cycle boundaries, cache
// churn, and reset spans (spec.md §5.1). Defaults to a no-op logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return &salveerr.ConfigError{Option: "logger", Value: nil, Message: "must not be nil"}
		}
		c.logger = logger
		return nil
	}
}

func applyOptions(opts ...Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
