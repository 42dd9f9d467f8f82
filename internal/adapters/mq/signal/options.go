package signal

import "github.com/okian/skillmatrix/pkg/logger"

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithBufferSize sets the buffer size for pending signals.
func WithBufferSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithLogger sets the logger used by the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}
