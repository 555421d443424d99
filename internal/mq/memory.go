package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend is an in-process fanout bus used by tests. Messages
// published before a subscriber attaches are kept in the log only.
type MemoryBackend struct {
	mu          sync.Mutex
	closed      bool
	log         map[string][]Message
	subscribers map[string][]chan Message
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		log:         make(map[string][]Message),
		subscribers: make(map[string][]chan Message),
	}
}

func (m *MemoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", errors.New("memory backend closed")
	}

	msg := Message{ID: uuid.NewString(), Data: data, Attributes: attrs}
	m.log[channel] = append(m.log[channel], msg)
	for _, sub := range m.subscribers[channel] {
		select {
		case sub <- msg:
		default:
		}
	}
	return msg.ID, nil
}

func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	sub := make(chan Message, 64)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("memory backend closed")
	}
	m.subscribers[channel] = append(m.subscribers[channel], sub)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				return errors.New("memory backend closed")
			}
			_ = handler(ctx, msg)
		}
	}
}

// Published returns a copy of every message sent to channel.
func (m *MemoryBackend) Published(channel string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.log[channel]...)
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, subs := range m.subscribers {
		for _, sub := range subs {
			close(sub)
		}
	}
	return nil
}
