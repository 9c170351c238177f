package channel

import (
	"github.com/pqiaohaoq/gochan/log"
)

var (
	defaultOptions = &Options{
		logger: log.Nop(),
	}
)

type Option func(*Options)

type Options struct {
	name   string
	logger log.Logger
}

func WithName(name string) Option     { return func(o *Options) { o.name = name } }
func WithLogger(l log.Logger) Option { return func(o *Options) { o.logger = l } }

func applyOpts(opts []Option) Options {
	o := *defaultOptions

	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = log.Nop()
	}

	return o
}
