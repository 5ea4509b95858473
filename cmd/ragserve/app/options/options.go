// Package options contains flags and options for initializing the RAG server.
package options

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragserve/internal/ragserve"
	"github.com/kart-io/ragserve/pkg/options"
	cacheopts "github.com/kart-io/ragserve/pkg/options/cache"
	httpopts "github.com/kart-io/ragserve/pkg/options/http"
	llmopts "github.com/kart-io/ragserve/pkg/options/llm"
	logopts "github.com/kart-io/ragserve/pkg/options/logger"
	metricsopts "github.com/kart-io/ragserve/pkg/options/metrics"
	ragopts "github.com/kart-io/ragserve/pkg/options/rag"
	storeopts "github.com/kart-io/ragserve/pkg/options/store"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// StoreOptions contains vector store configuration.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains RAG-specific configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// CacheOptions contains response cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// MetricsOptions contains query metrics configuration.
	MetricsOptions *metricsopts.Options `json:"metrics" mapstructure:"metrics"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		StoreOptions:     storeopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		RAGOptions:       ragopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		MetricsOptions:   metricsopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// AddFlags adds all server flags to the given FlagSet.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.StoreOptions.AddFlags(fs)
	o.EmbeddingOptions.AddFlags(fs, "embedding.")
	o.ChatOptions.AddFlags(fs, "chat.")
	o.RAGOptions.AddFlags(fs)
	o.CacheOptions.AddFlags(fs)
	o.MetricsOptions.AddFlags(fs)

	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	for _, opt := range o.all() {
		if err := opt.Complete(); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates all the options.
func (o *ServerOptions) Validate() []error {
	var errs []error
	for _, opt := range o.all() {
		errs = append(errs, opt.Validate()...)
	}
	return errs
}

// Config builds the runtime configuration from the validated options.
func (o *ServerOptions) Config() (*ragserve.Config, error) {
	return &ragserve.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		StoreOptions:     o.StoreOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		RAGOptions:       o.RAGOptions,
		CacheOptions:     o.CacheOptions,
		MetricsOptions:   o.MetricsOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}

func (o *ServerOptions) all() []options.IOptions {
	return []options.IOptions{
		o.HTTPOptions,
		o.StoreOptions,
		o.EmbeddingOptions,
		o.ChatOptions,
		o.RAGOptions,
		o.CacheOptions,
		o.MetricsOptions,
	}
}
