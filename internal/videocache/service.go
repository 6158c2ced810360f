package videocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const DefaultTTL = time.Hour

// Service serves video metadata from the cache and fills misses from the
// fetcher.
type Service struct {
	store   Store
	fetcher Fetcher
	ttl     time.Duration
}

func NewService(store Store, fetcher Fetcher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, fetcher: fetcher, ttl: ttl}
}

func SearchKey(query string, maxResults int) string {
	return fmt.Sprintf("youtube:search:%s:%d", query, maxResults)
}

func VideoKey(id string) string {
	return "youtube:video:" + id
}

func (s *Service) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	maxResults = ClampMaxResults(maxResults)

	var results []SearchResult
	err := s.readThrough(ctx, SearchKey(query, maxResults), &results, func() (any, error) {
		return s.fetcher.Search(ctx, query, maxResults)
	})
	return results, err
}

func (s *Service) Video(ctx context.Context, id string) (*VideoDetails, error) {
	if !ValidVideoID(id) {
		return nil, ErrInvalidVideoID
	}

	var details VideoDetails
	if err := s.readThrough(ctx, VideoKey(id), &details, func() (any, error) {
		return s.fetcher.Video(ctx, id)
	}); err != nil {
		return nil, err
	}
	return &details, nil
}

// readThrough decodes the cached value for key into dst, or calls load,
// caches its result and decodes that. A failed cache write does not fail the
// read.
func (s *Service) readThrough(ctx context.Context, key string, dst any, load func() (any, error)) error {
	cached, err := s.store.Get(ctx, key)
	if err == nil {
		if jsonErr := json.Unmarshal(cached, dst); jsonErr == nil {
			return nil
		}
		slog.Warn("discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("cache read failed", "key", key, "error", err)
	}

	fresh, err := load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return json.Unmarshal(raw, dst)
}
