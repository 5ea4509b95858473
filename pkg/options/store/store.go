// Package store provides vector store configuration options.
package store

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragserve/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Backend names understood by the store factory.
const (
	BackendMilvus  = "milvus"
	BackendChromem = "chromem"
)

// Options configures the vector store backend.
type Options struct {
	// Backend selects the vector store implementation (milvus, chromem).
	Backend string `json:"backend" mapstructure:"backend"`

	// Collection is the collection (index) name.
	Collection string `json:"collection" mapstructure:"collection"`

	// Milvus connection settings, used when Backend is "milvus".
	Address  string        `json:"address" mapstructure:"address"`
	Username string        `json:"username" mapstructure:"username"`
	Password string        `json:"-" mapstructure:"password"`
	Database string        `json:"database" mapstructure:"database"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`

	// DataDir is the persistence directory for the embedded chromem
	// backend. Empty means in-memory only.
	DataDir string `json:"data-dir" mapstructure:"data-dir"`
}

// NewOptions creates default vector store configuration.
func NewOptions() *Options {
	return &Options{
		Backend:    BackendChromem,
		Collection: "rag_chunks",
		Address:    "localhost:19530",
		Database:   "default",
		Timeout:    10 * time.Second,
	}
}

// AddFlags adds flags for store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"store.backend", o.Backend, "Vector store backend (milvus, chromem).")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"store.collection", o.Collection, "Vector store collection name.")
	fs.StringVar(&o.Address, options.Join(prefixes...)+"store.address", o.Address, "Milvus server address.")
	fs.StringVar(&o.Username, options.Join(prefixes...)+"store.username", o.Username, "Milvus username.")
	fs.StringVar(&o.Password, options.Join(prefixes...)+"store.password", o.Password, "Milvus password.")
	fs.StringVar(&o.Database, options.Join(prefixes...)+"store.database", o.Database, "Milvus database name.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"store.timeout", o.Timeout, "Milvus connect timeout.")
	fs.StringVar(&o.DataDir, options.Join(prefixes...)+"store.data-dir", o.DataDir, "Persistence directory for the chromem backend (empty = in-memory).")
}

// Validate validates the store options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendMilvus:
		if o.Address == "" {
			errs = append(errs, fmt.Errorf("store.address is required for the milvus backend"))
		}
	case BackendChromem:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend: %s", o.Backend))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("store.collection cannot be empty"))
	}
	return errs
}

// Complete completes the store options with defaults.
func (o *Options) Complete() error {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return nil
}
