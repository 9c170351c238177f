package registry

import (
	"errors"
	"fmt"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pqiaohaoq/gochan/channel"
	"github.com/pqiaohaoq/gochan/holder"
	"github.com/pqiaohaoq/gochan/log"
	"golang.org/x/exp/slices"
)

var (
	ErrNameIsEmpty    = errors.New("channel name is empty")
	ErrDuplicatedName = errors.New("duplicated channel name")
	ErrNotFound       = errors.New("channel not found")
)

var (
	defaultOptions = &Options{
		logger: log.Nop(),
	}
)

type Option func(*Options)

type Options struct {
	logger log.Logger
}

func WithLogger(l log.Logger) Option { return func(o *Options) { o.logger = l } }

func applyOpts(opts []Option) Options {
	o := *defaultOptions

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Registry owns named channels of arbitrary element types.
type Registry struct {
	holders cmap.ConcurrentMap[string, *holder.Holder]
	logger  log.Logger
}

var (
	_globalR  = New()
	_globalMu sync.RWMutex
)

func ReplaceGlobals(r *Registry) {
	_globalMu.Lock()
	_globalR = r
	_globalMu.Unlock()
}

func L() *Registry {
	_globalMu.RLock()
	r := _globalR
	_globalMu.RUnlock()

	return r
}

func New(opts ...Option) *Registry {
	o := applyOpts(opts)

	return &Registry{
		holders: cmap.New[*holder.Holder](),
		logger:  o.logger,
	}
}

// Make creates a channel under name. The channel logs through the registry logger.
func Make[T any](r *Registry, name string, capacity int, opts ...channel.Option) (*channel.Channel[T], error) {
	if name == "" {
		return nil, ErrNameIsEmpty
	}

	opts = append([]channel.Option{channel.WithName(name), channel.WithLogger(r.logger)}, opts...)
	h := holder.New[T](capacity, opts...)

	if !r.holders.SetIfAbsent(name, h) {
		h.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrDuplicatedName, name)
	}

	ch, _ := holder.Typed[T](h)

	r.logger.Infof("[registry] make channel %s (%s, capacity %d)", name, h.Type(), capacity)

	return ch, nil
}

// Lookup returns the channel under name if its element type is T.
func Lookup[T any](r *Registry, name string) (*channel.Channel[T], error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	ch, ok := holder.Typed[T](h)
	if !ok {
		return nil, fmt.Errorf("%w: channel %s holds %s", holder.ErrTypeMismatch, name, h.Type())
	}

	return ch, nil
}

func (r *Registry) Get(name string) (*holder.Holder, bool) {
	return r.holders.Get(name)
}

func (r *Registry) Close(name string) error {
	h, ok := r.holders.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return h.Close()
}

// Destroy removes the channel and waits for its blocked callers to unwind.
func (r *Registry) Destroy(name string) {
	h, ok := r.holders.Pop(name)
	if !ok {
		return
	}

	h.Destroy()

	r.logger.Infof("[registry] destroy channel %s", name)
}

func (r *Registry) DestroyAll() {
	for _, name := range r.holders.Keys() {
		r.Destroy(name)
	}
}

func (r *Registry) Count() int { return r.holders.Count() }

func (r *Registry) Names() []string {
	names := r.holders.Keys()
	slices.Sort(names)

	return names
}
