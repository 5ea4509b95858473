// Package metrics provides query metrics sink configuration options.
package metrics

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragserve/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the query metrics sink.
type Options struct {
	// Enabled toggles persistent per-query metric records.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file backing the sink.
	Path string `json:"path" mapstructure:"path"`

	// RecentLimit is the default number of records returned by the
	// recent-metrics endpoint.
	RecentLimit int `json:"recent-limit" mapstructure:"recent-limit"`

	// TruncateResponse is the number of characters of the response
	// text kept in each record.
	TruncateResponse int `json:"truncate-response" mapstructure:"truncate-response"`
}

// NewOptions creates default metrics sink configuration.
func NewOptions() *Options {
	return &Options{
		Enabled:          true,
		Path:             "data/ragserve-metrics.db",
		RecentLimit:      10,
		TruncateResponse: 100,
	}
}

// AddFlags adds flags for metrics options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"metrics.enabled", o.Enabled, "Enable persistent per-query metric records.")
	fs.StringVar(&o.Path, options.Join(prefixes...)+"metrics.path", o.Path, "SQLite database file for metric records.")
	fs.IntVar(&o.RecentLimit, options.Join(prefixes...)+"metrics.recent-limit", o.RecentLimit, "Default number of records returned by the recent-metrics endpoint.")
	fs.IntVar(&o.TruncateResponse, options.Join(prefixes...)+"metrics.truncate-response", o.TruncateResponse, "Number of response characters kept per record.")
}

// Validate validates the metrics options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Enabled && o.Path == "" {
		errs = append(errs, fmt.Errorf("metrics.path is required when metrics are enabled"))
	}
	if o.RecentLimit <= 0 {
		errs = append(errs, fmt.Errorf("metrics.recent-limit must be positive, got %d", o.RecentLimit))
	}
	return errs
}

// Complete completes the metrics options with defaults.
func (o *Options) Complete() error {
	if o.TruncateResponse <= 0 {
		o.TruncateResponse = 100
	}
	return nil
}
