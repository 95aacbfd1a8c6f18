package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

func predictionKey(username string) string {
	return "session:" + username + ":prediction"
}

// RedisSessions хранит последний прогноз пользователя в redis с TTL.
type RedisSessions struct {
	cache *Cache
	ttl   time.Duration
}

// NewRedisSessions создаёт хранилище сессий поверх Cache.
func NewRedisSessions(c *Cache, ttl time.Duration) *RedisSessions {
	return &RedisSessions{cache: c, ttl: ttl}
}

// SavePrediction перезаписывает последний прогноз и продлевает TTL.
func (s *RedisSessions) SavePrediction(ctx context.Context, username string, p models.Prediction) error {
	const op = "cache.SavePrediction"
	if err := s.cache.Set(ctx, predictionKey(username), p, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LastPrediction возвращает последний прогноз. false, если его нет или TTL истёк.
func (s *RedisSessions) LastPrediction(ctx context.Context, username string) (models.Prediction, bool, error) {
	const op = "cache.LastPrediction"
	var p models.Prediction
	found, err := s.cache.Get(ctx, predictionKey(username), &p)
	if err != nil {
		return models.Prediction{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, found, nil
}

// Clear удаляет сохранённый прогноз.
func (s *RedisSessions) Clear(ctx context.Context, username string) error {
	const op = "cache.Clear"
	if err := s.cache.Invalidate(ctx, predictionKey(username)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type memoryEntry struct {
	prediction models.Prediction
	expiresAt  time.Time
}

// MemorySessions — хранилище сессий в памяти процесса.
type MemorySessions struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessions создаёт хранилище. Нулевой ttl означает хранение без срока.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SavePrediction перезаписывает последний прогноз.
func (s *MemorySessions) SavePrediction(ctx context.Context, username string, p models.Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{prediction: p}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[username] = e
	s.mu.Unlock()
	return nil
}

// LastPrediction возвращает последний прогноз, если он не истёк.
func (s *MemorySessions) LastPrediction(ctx context.Context, username string) (models.Prediction, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Prediction{}, false, err
	}
	s.mu.RLock()
	e, ok := s.entries[username]
	s.mu.RUnlock()
	if !ok {
		return models.Prediction{}, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, username)
		s.mu.Unlock()
		return models.Prediction{}, false, nil
	}
	return e.prediction, true, nil
}

// Clear удаляет сохранённый прогноз.
func (s *MemorySessions) Clear(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, username)
	s.mu.Unlock()
	return nil
}
