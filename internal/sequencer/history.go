package sequencer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/leadpilot/internal/domain"
)

// HistorySink is the bounded dispatch-attempt log. Appends are
// fire-and-forget observability; a sink failure never influences a tick.
type HistorySink interface {
	// Append records one dispatch attempt, newest first.
	Append(ctx context.Context, a domain.DispatchAttempt) error
	// Recent returns up to n attempts for a campaign, newest first.
	Recent(ctx context.Context, campaignID string, n int) ([]domain.DispatchAttempt, error)
}

// RedisHistory keeps a capped per-campaign list of dispatch attempts in
// Redis (LPUSH + LTRIM), so the log survives process restarts and is shared
// between the API server and the headless worker.
type RedisHistory struct {
	client *redis.Client
	limit  int
}

func NewRedisHistory(client *redis.Client, limit int) *RedisHistory {
	if limit <= 0 {
		limit = 200
	}
	return &RedisHistory{client: client, limit: limit}
}

func historyKey(campaignID string) string {
	return "leadpilot:dispatch_history:" + campaignID
}

func (h *RedisHistory) Append(ctx context.Context, a domain.DispatchAttempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal dispatch attempt: %w", err)
	}
	key := historyKey(a.CampaignID)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(h.limit-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) Recent(ctx context.Context, campaignID string, n int) ([]domain.DispatchAttempt, error) {
	if n <= 0 || n > h.limit {
		n = h.limit
	}
	rows, err := h.client.LRange(ctx, historyKey(campaignID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.DispatchAttempt, 0, len(rows))
	for _, row := range rows {
		var a domain.DispatchAttempt
		if err := json.Unmarshal([]byte(row), &a); err != nil {
			continue // skip entries written by an older build
		}
		out = append(out, a)
	}
	return out, nil
}

// MemoryHistory is the in-process fallback used when Redis is not
// configured, and in tests.
type MemoryHistory struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]domain.DispatchAttempt
}

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = 200
	}
	return &MemoryHistory{limit: limit, entries: make(map[string][]domain.DispatchAttempt)}
}

func (h *MemoryHistory) Append(_ context.Context, a domain.DispatchAttempt) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append([]domain.DispatchAttempt{a}, h.entries[a.CampaignID]...)
	if len(list) > h.limit {
		list = list[:h.limit]
	}
	h.entries[a.CampaignID] = list
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, campaignID string, n int) ([]domain.DispatchAttempt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.entries[campaignID]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]domain.DispatchAttempt, n)
	copy(out, list[:n])
	return out, nil
}
