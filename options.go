package benstream

import (
	"golang.org/x/time/rate"
)

// Options configures encoders and decoders.
type Options struct {
	// Logger receives structured progress and lifecycle logs.
	// Defaults to a noop logger.
	Logger *Logger

	// Metrics receives operation metrics. Defaults to NoopMetricsCollector.
	Metrics MetricsCollector

	// BufferSize is the size of the internal read/write buffer in bytes.
	// Defaults to 64 KiB. Ensembles are consumed strictly sequentially, so a
	// generous buffer pays for itself.
	BufferSize int

	// ProgressEvery throttles progress logging to at most this many events
	// per second. Zero disables progress logging.
	ProgressEvery rate.Limit
}

const defaultBufferSize = 64 * 1024

func defaultOptions() Options {
	return Options{
		Logger:        NoopLogger(),
		Metrics:       NoopMetricsCollector{},
		BufferSize:    defaultBufferSize,
		ProgressEvery: 0,
	}
}

func applyOptions(optFns []func(*Options)) Options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	return opts
}

func (o Options) progressLimiter() *rate.Limiter {
	if o.ProgressEvery <= 0 {
		return nil
	}
	return rate.NewLimiter(o.ProgressEvery, 1)
}
