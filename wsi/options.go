package wsi

import (
	"github.com/robert-malhotra/go-wsi/internal/cache"
	"github.com/robert-malhotra/go-wsi/internal/logger"
	"github.com/robert-malhotra/go-wsi/internal/tiffio"
)

// Option configures slide opening.
type Option func(*openOptions)

type openOptions struct {
	cacheSize  int64
	maxHandles int
	log        logger.Logger
}

func defaultOpenOptions() *openOptions {
	return &openOptions{
		cacheSize:  cache.DefaultCapacity,
		maxHandles: tiffio.DefaultMaxHandles,
		log:        logger.Discard(),
	}
}

// WithTileCacheSize sets the decoded-tile cache capacity in bytes.
func WithTileCacheSize(bytes int64) Option {
	return func(o *openOptions) {
		if bytes > 0 {
			o.cacheSize = bytes
		}
	}
}

// WithMaxHandles sets how many idle file handles the slide keeps for
// concurrent region reads.
func WithMaxHandles(n int) Option {
	return func(o *openOptions) {
		if n > 0 {
			o.maxHandles = n
		}
	}
}

// WithLogger directs the library's diagnostics to l. The default discards
// them.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.log = l
		}
	}
}
