package broadcast

import (
	"errors"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pqiaohaoq/gochan/channel"
	"github.com/pqiaohaoq/gochan/log"
)

var (
	ErrTopicKeyIsEmpty    = errors.New("topic key is empty")
	ErrChannelNameIsEmpty = errors.New("channel name is empty")
	ErrChanIsNil          = errors.New("channel is nil")
)

// Broadcast fans each published message out to every channel subscribed to its topic.
type Broadcast[T any] struct {
	topics cmap.ConcurrentMap[string, cmap.ConcurrentMap[string, *channel.Channel[T]]]
	logger log.Logger

	inflight sync.WaitGroup
}

type Option func(*Options)

type Options struct {
	logger log.Logger
}

func WithLogger(l log.Logger) Option { return func(o *Options) { o.logger = l } }

func applyOpts(opts []Option) Options {
	o := Options{logger: log.Nop()}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func NewBroadcast[T any](opts ...Option) *Broadcast[T] {
	o := applyOpts(opts)

	return &Broadcast[T]{
		topics: cmap.New[cmap.ConcurrentMap[string, *channel.Channel[T]]](),
		logger: o.logger,
	}
}

// Subscribe registers ch under topicKey. A second subscription with the
// same name replaces the first.
func (bc *Broadcast[T]) Subscribe(topicKey, chanName string, ch *channel.Channel[T]) error {
	if topicKey == "" {
		return ErrTopicKeyIsEmpty
	}
	if chanName == "" {
		return ErrChannelNameIsEmpty
	}
	if ch == nil {
		return ErrChanIsNil
	}

	topic := bc.topics.Upsert(topicKey, cmap.New[*channel.Channel[T]](), func(exist bool, valueInMap, newValue cmap.ConcurrentMap[string, *channel.Channel[T]]) cmap.ConcurrentMap[string, *channel.Channel[T]] {
		if exist {
			return valueInMap
		}

		return newValue
	})

	topic.Set(chanName, ch)

	bc.logger.Infof("[broadcast] subscribe the topic %s with channel [name: %s id: %s]", topicKey, chanName, ch.ID())

	return nil
}

func (bc *Broadcast[T]) Unsubscribe(topicKey, chanName string) {
	if topicKey == "" || chanName == "" {
		return
	}

	topic, ok := bc.topics.Get(topicKey)
	if !ok {
		bc.logger.Infof("[broadcast] topic %s is not existed", topicKey)
		return
	}

	topic.Remove(chanName)

	bc.logger.Infof("[broadcast] chanName %s unsubscribe the topic %s", chanName, topicKey)
}

// Subscribers returns how many channels currently listen on topicKey.
func (bc *Broadcast[T]) Subscribers(topicKey string) int {
	topic, ok := bc.topics.Get(topicKey)
	if !ok {
		return 0
	}

	return topic.Count()
}

// Publish delivers message to each subscriber on its own goroutine, so a
// full subscriber never stalls the others. Subscribers that are closed or
// destroyed are purged.
func (bc *Broadcast[T]) Publish(topicKey string, message T) {
	bc.logger.Debugf("[broadcast] topicKey %s, message: %+v", topicKey, message)

	topic, ok := bc.topics.Get(topicKey)
	if !ok {
		return
	}

	for tuple := range topic.IterBuffered() {
		chanName := tuple.Key
		ch := tuple.Val

		bc.inflight.Add(1)
		go func() {
			defer bc.inflight.Done()

			err := ch.Send(message)
			if errors.Is(err, channel.ErrClosed) || errors.Is(err, channel.ErrDestroyed) {
				bc.logger.Infof("[broadcast] channel [%s %s] is gone (%v), purge it", chanName, ch.ID(), err)

				topic.RemoveCb(chanName, func(_ string, v *channel.Channel[T], exists bool) bool {
					return exists && v == ch
				})
			}
		}()
	}
}

// Wait blocks until every delivery started by Publish has finished.
func (bc *Broadcast[T]) Wait() {
	bc.inflight.Wait()
}
