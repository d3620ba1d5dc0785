// Package chat carries team chat messages between API instances and the
// SSE clients connected to each of them.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"backoffice/internal/logger"
	"backoffice/internal/model"
)

// Bus publishes stored messages to every API instance.
type Bus interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
	// StartForwarder delivers every published message to onMsg until ctx ends.
	StartForwarder(ctx context.Context, onMsg func(model.ChatMessage)) error
	Close() error
}

type redisBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewRedisBus publishes on "<prefix>:<projectId>" and listens on "<prefix>:*".
func NewRedisBus(rdb *goredis.Client, prefix string, log *logger.Logger) (Bus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		log = logger.Nop()
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "team-chat"
	}
	return &redisBus{log: log.With("service", "ChatRedisBus"), rdb: rdb, prefix: prefix}, nil
}

func (b *redisBus) Channel(projectID string) string {
	return b.prefix + ":" + projectID
}

func (b *redisBus) Publish(ctx context.Context, msg model.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.Channel(msg.ProjectID), raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(model.ChatMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.PSubscribe(ctx, b.prefix+":*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg model.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad chat payload", "error", err, "channel", m.Channel)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	return b.rdb.Close()
}

// MemoryBus is a single-process Bus used when Redis is not configured.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[int]func(model.ChatMessage)
	next     int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[int]func(model.ChatMessage))}
}

func (b *MemoryBus) Publish(_ context.Context, msg model.ChatMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(msg)
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onMsg func(model.ChatMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *MemoryBus) Close() error { return nil }
