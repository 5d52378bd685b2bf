package usage

type options struct {
	workersCount int
	progress     chan<- Progress
}

type Option func(opts *options)

// WithWorkersCount bounds how many repositories are fetched at the same time.
// One worker fetches repository after repository.
func WithWorkersCount(workersCount int) Option {
	return func(o *options) {
		o.workersCount = workersCount
	}
}

// WithProgress makes Build send a Progress after every repository it finished.
// The channel is never closed by the builder.
func WithProgress(progress chan<- Progress) Option {
	return func(o *options) {
		o.progress = progress
	}
}

func makeOptions(opts ...Option) *options {
	res := options{
		workersCount: 8,
	}
	for _, o := range opts {
		o(&res)
	}
	if res.workersCount < 1 {
		res.workersCount = 1
	}
	return &res
}
