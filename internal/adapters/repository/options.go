package repository

import (
	"os"

	"github.com/okian/xpts/pkg/logger"
)

type options struct {
	logger logger.Logger
	prefix string
	perm   os.FileMode
}

func defaultOptions() options {
	return options{
		logger: logger.OrDefault().Named("model-store"),
		perm:   0o644,
	}
}

// Option applies a configuration option to a model store.
type Option func(*options)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrefix prepends prefix to every object key. Only the S3 store uses it.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithFileMode sets the permission bits of model files written by FileStore.
func WithFileMode(perm os.FileMode) Option {
	return func(o *options) {
		if perm != 0 {
			o.perm = perm
		}
	}
}
