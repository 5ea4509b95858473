// Package cache provides response cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragserve/pkg/options"
	redisopts "github.com/kart-io/ragserve/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the query response cache.
type Options struct {
	// Enabled controls whether query responses are cached at all.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is how long a cached response stays valid.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces cache keys in a shared Redis.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis holds the backing store connection configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions creates default cache configuration.
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		TTL:       time.Hour,
		KeyPrefix: "rag_cache:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"cache.enabled", o.Enabled, "Enable the query response cache.")
	fs.DurationVar(&o.TTL, options.Join(prefixes...)+"cache.ttl", o.TTL, "Time-to-live for cached responses.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"cache.key-prefix", o.KeyPrefix, "Namespace prefix for cache keys.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, prefixes...)
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Enabled {
		if o.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
		}
		if o.KeyPrefix == "" {
			errs = append(errs, fmt.Errorf("cache.key-prefix cannot be empty"))
		}
		if o.Redis != nil {
			errs = append(errs, o.Redis.Validate()...)
		}
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return o.Redis.Complete()
}
