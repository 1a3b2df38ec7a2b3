package sync

import (
	"sync"
)

const replicasPerChannel = 200

// StripedChannel is a set of channels where each key is consistently routed
// to the same channel, so values sharing a key are received in send order
// by a single consumer.
type StripedChannel[T any] struct {
	channels  []chan T
	ring      *ring
	closeOnce sync.Once
}

// NewStripedChannel returns count channels, each buffering queueSize values.
func NewStripedChannel[T any](count, queueSize uint) *StripedChannel[T] {
	channels := make([]chan T, count)
	for i := range channels {
		channels[i] = make(chan T, queueSize)
	}

	return &StripedChannel[T]{
		channels: channels,
		ring:     newRing(count, replicasPerChannel),
	}
}

// GetChannels returns the receiving side of every channel.
func (c *StripedChannel[T]) GetChannels() []<-chan T {
	receivers := make([]<-chan T, len(c.channels))
	for i, channel := range c.channels {
		receivers[i] = channel
	}
	return receivers
}

// Send queues value on key's channel without blocking, and reports whether
// there was room.
func (c *StripedChannel[T]) Send(key []byte, value T) bool {
	select {
	case c.channels[c.ring.shard(key)] <- value:
		return true
	default:
		return false
	}
}

// BlockingSend queues value on key's channel, waiting for room.
func (c *StripedChannel[T]) BlockingSend(key []byte, value T) {
	c.channels[c.ring.shard(key)] <- value
}

// Close closes every channel. It is safe to call more than once.
func (c *StripedChannel[T]) Close() {
	c.closeOnce.Do(func() {
		for _, channel := range c.channels {
			close(channel)
		}
	})
}
