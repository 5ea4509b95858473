// Package options defines the generic options interface shared by all
// per-concern configuration packages.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every configuration section. Sections are
// composed into the server options in cmd/ragserve/app/options.
type IOptions interface {
	// Validate validates all the required options.
	Validate() []error

	// AddFlags adds flags related to the given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)

	// Complete fills in any fields not set that are required to have
	// valid data.
	Complete() error
}

// Join concatenates prefixes with a "." separator and appends a
// trailing "." when non-empty, producing flag names like
// "embedding.llm.provider".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}
