// Package cache holds small Redis-backed read caches for hot browse
// endpoints. Every helper degrades to a miss when Redis is down so
// the database path always works.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// DefaultPopularTTL bounds how stale the popular-themes ranking may
// get. The ranking only shifts when reservations change, so a short
// TTL is plenty.
const DefaultPopularTTL = 10 * time.Minute

// PopularThemes caches the weekly theme ranking as a JSON blob keyed
// by the ranking window. A nil client disables the cache entirely.
type PopularThemes struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPopularThemes builds the cache. rdb may be nil; ttl <= 0 falls
// back to DefaultPopularTTL.
func NewPopularThemes(rdb *redis.Client, ttl time.Duration) *PopularThemes {
	if ttl <= 0 {
		ttl = DefaultPopularTTL
	}
	return &PopularThemes{rdb: rdb, ttl: ttl}
}

func popularKey(from, to time.Time) string {
	return fmt.Sprintf("popular_themes:%s:%s",
		from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))
}

// Get returns the cached ranking for the window, or ok=false on any
// miss, decode failure or Redis error.
func (p *PopularThemes) Get(ctx context.Context, from, to time.Time) ([]model.Theme, bool) {
	if p == nil || p.rdb == nil {
		return nil, false
	}
	raw, err := p.rdb.Get(ctx, popularKey(from, to)).Bytes()
	if err != nil {
		return nil, false
	}
	var themes []model.Theme
	if err := json.Unmarshal(raw, &themes); err != nil {
		// A corrupt entry is dropped so the next Set rewrites it.
		_ = p.rdb.Del(ctx, popularKey(from, to)).Err()
		return nil, false
	}
	return themes, true
}

// Set stores the ranking for the window. Failures are logged and
// ignored; the caller already has the data.
func (p *PopularThemes) Set(ctx context.Context, from, to time.Time, themes []model.Theme) {
	if p == nil || p.rdb == nil {
		return
	}
	raw, err := json.Marshal(themes)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, popularKey(from, to), raw, p.ttl).Err(); err != nil {
		log.Printf("cache popular themes: %v", err)
	}
}
