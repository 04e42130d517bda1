// SPDX-License-Identifier: EPL-2.0

package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ik5/multitrack/waveform"
)

const (
	waveformKey = "multitrack:waveform:%s:%d"
	// DefaultWaveformTTL keeps an envelope for a week.
	DefaultWaveformTTL = 7 * 24 * time.Hour
)

// ConnectRedis creates a client and checks the server answers.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

type waveformEntry struct {
	URL   string    `msgpack:"u"`
	Peaks []float32 `msgpack:"p"`
}

// WaveformCache keeps envelopes in Redis as msgpack. It implements
// waveform.Cache.
type WaveformCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWaveformCache(client *redis.Client, ttl time.Duration) *WaveformCache {
	if ttl <= 0 {
		ttl = DefaultWaveformTTL
	}
	return &WaveformCache{client: client, ttl: ttl}
}

func (c *WaveformCache) Get(ctx context.Context, url string, buckets int) ([]float32, bool, error) {
	if c.client == nil {
		return nil, false, ErrNoClient
	}

	data, err := c.client.Get(ctx, cacheKey(url, buckets)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading waveform: %w", err)
	}

	peaks, ok, err := decodeEntry(data, url)
	if err != nil {
		return nil, false, err
	}
	return peaks, ok, nil
}

func (c *WaveformCache) Set(ctx context.Context, url string, buckets int, env []float32) error {
	if c.client == nil {
		return ErrNoClient
	}

	data, err := msgpack.Marshal(waveformEntry{URL: url, Peaks: env})
	if err != nil {
		return fmt.Errorf("encoding waveform: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(url, buckets), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing waveform: %w", err)
	}
	return nil
}

// decodeEntry unpacks a cached entry. An entry stored for another url
// under the same hash is a miss.
func decodeEntry(data []byte, url string) ([]float32, bool, error) {
	var e waveformEntry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decoding waveform: %w", err)
	}
	if e.URL != url {
		return nil, false, nil
	}
	return e.Peaks, true, nil
}

func cacheKey(url string, buckets int) string {
	sum := sha1.Sum([]byte(url))
	return fmt.Sprintf(waveformKey, hex.EncodeToString(sum[:]), buckets)
}

var _ waveform.Cache = (*WaveformCache)(nil)
