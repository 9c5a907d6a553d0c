package repository

import (
	"time"

	"github.com/okian/peri/pkg/logger"
)

const defaultKeyPrefix = "peri:"

type options struct {
	keyPrefix string
	clock     func() time.Time
	log       logger.Logger
}

func defaultOptions() options {
	return options{
		keyPrefix: defaultKeyPrefix,
		clock:     time.Now,
		log:       logger.Nop(),
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithClock sets the time source used for updated_at columns.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
