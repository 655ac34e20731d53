package forest

// Option applies a configuration option to a fit.
type Option func(*fitter)

// WithSeed sets the master seed from which every tree's bootstrap seed is drawn.
func WithSeed(seed int64) Option {
	return func(f *fitter) {
		f.seed = seed
	}
}

// WithWorkers bounds the number of trees grown concurrently. Values below one
// are ignored.
func WithWorkers(n int) Option {
	return func(f *fitter) {
		if n > 0 {
			f.workers = n
		}
	}
}
