package features

import "github.com/okian/xpts/pkg/logger"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}
