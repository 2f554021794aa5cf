package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"driving-exam-service/internal/domain"
)

// Storage is the key/value capability a host environment provides
// (memory, Redis, a desktop-local SQLite file, ...).
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

const (
	historyKey          = "examHistory"
	DefaultHistoryLimit = 50
)

// History keeps finished results newest first, capped at limit entries.
type History struct {
	storage Storage
	limit   int
	mu      sync.Mutex
}

func NewHistory(storage Storage, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{storage: storage, limit: limit}
}

// SaveResult prepends result and drops entries beyond the limit.
func (h *History) SaveResult(ctx context.Context, result domain.ExamResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.load(ctx)
	if err != nil {
		return err
	}
	results = append([]domain.ExamResult{result}, results...)
	if len(results) > h.limit {
		results = results[:h.limit]
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := h.storage.Set(ctx, historyKey, string(raw)); err != nil {
		return fmt.Errorf("store history: %w", err)
	}
	return nil
}

// ListResults returns up to limit results, newest first. limit <= 0 means all.
func (h *History) ListResults(ctx context.Context, limit int) ([]domain.ExamResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Clear drops all stored results.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.storage.Remove(ctx, historyKey)
}

func (h *History) load(ctx context.Context) ([]domain.ExamResult, error) {
	raw, ok, err := h.storage.Get(ctx, historyKey)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok || raw == "" {
		return []domain.ExamResult{}, nil
	}
	var results []domain.ExamResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return results, nil
}
