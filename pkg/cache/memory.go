package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Memory is an in-process cache backed by go-cache. Values are stored as JSON
// so that Get always hands back a fresh copy, matching the Redis behaviour.
type Memory struct {
	c      *gocache.Cache
	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMemory creates an empty memory cache. Expired entries are invisible to Get
// immediately and are physically removed by the sweeper started with StartSweeper.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		c:      gocache.New(gocache.NoExpiration, 0),
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string, target any) error {
	val, found := m.c.Get(key)
	if !found {
		return ErrMiss
	}
	raw, ok := val.([]byte)
	if !ok {
		return fmt.Errorf("unexpected cached value type %T", val)
	}
	return json.Unmarshal(raw, target)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, raw, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.c.Delete(key)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for key := range m.c.Items() {
		if strings.HasPrefix(key, prefix) {
			m.c.Delete(key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}

// Sweep removes expired entries.
func (m *Memory) Sweep() {
	m.c.DeleteExpired()
}

// StartSweeper removes expired entries every interval until Stop is called.
func (m *Memory) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.logger.Info("Started cache sweeper", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				before := m.c.ItemCount()
				m.Sweep()
				if swept := before - m.c.ItemCount(); swept > 0 {
					m.logger.Debug("Swept expired cache entries", zap.Int("count", swept))
				}
			case <-m.stopCh:
				m.logger.Info("Stopping cache sweeper")
				return
			}
		}
	}()
}

// Stop stops the sweeper and waits for it to exit. Safe to call more than once.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
