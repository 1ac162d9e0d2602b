// Package cache provides a Redis-backed cache for candidate sets keyed by
// blocking key, so repeated resolutions against the same cohort skip the
// database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hie/mpi/internal/mpi"
)

const candidateKeyPrefix = "mpi:cand:"

// Candidate pairs a stored patient's identity with its demographic record,
// so a cache hit can still report which row matched.
type Candidate struct {
	ID     uuid.UUID  `json:"id"`
	Record mpi.Record `json:"record"`
}

// CandidateCache stores candidate record sets with a TTL. A nil receiver or
// nil client behaves as a cache that never hits, so callers need no
// configuration branching.
type CandidateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps a Redis client. Pass nil to disable caching.
func New(client *redis.Client, ttl time.Duration) *CandidateCache {
	if client == nil {
		return nil
	}
	return &CandidateCache{client: client, ttl: ttl}
}

// blockingKey derives the cache key from the demographic blocking fields.
// Inputs are lowercased and trimmed so equivalent spellings share an entry.
func blockingKey(dob, gender string) string {
	dob = strings.ToLower(strings.TrimSpace(dob))
	gender = strings.ToLower(strings.TrimSpace(gender))
	return fmt.Sprintf("%s%s:%s", candidateKeyPrefix, dob, gender)
}

// Get returns the cached candidate set for the blocking key. The second
// return reports whether the entry existed.
func (c *CandidateCache) Get(ctx context.Context, dob, gender string) ([]Candidate, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, blockingKey(dob, gender)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var candidates []Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		// Corrupt entry: drop it rather than poisoning future lookups.
		c.client.Del(ctx, blockingKey(dob, gender))
		return nil, false, nil
	}
	return candidates, true, nil
}

// Put stores the candidate set under the blocking key with the configured TTL.
func (c *CandidateCache) Put(ctx context.Context, dob, gender string, candidates []Candidate) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, blockingKey(dob, gender), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate removes the entry for a blocking key. Used after writes that
// change the cohort.
func (c *CandidateCache) Invalidate(ctx context.Context, dob, gender string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, blockingKey(dob, gender)).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}
