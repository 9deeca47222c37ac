// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/penny-vault/portana/calendar"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// CachedProvider wraps another provider and keeps the securities it returns
// as lz4 compressed JSON in a local LRU and, optionally, a shared redis cache
type CachedProvider struct {
	name     string
	provider Provider
	local    *lru.Cache
	redis    *redis.Client
	ttl      time.Duration
}

// NewCachedProvider caches up to size securities loaded from provider. The
// name distinguishes providers that share a redis instance.
func NewCachedProvider(name string, provider Provider, size int) (*CachedProvider, error) {
	cache, err := lru.New(size)
	if err != nil {
		log.Error().Err(err).Int("Size", size).Msg("could not create LRU cache")
		return nil, err
	}

	return &CachedProvider{
		name:     name,
		provider: provider,
		local:    cache,
	}, nil
}

// WithRedis adds a second cache tier shared between processes; entries expire after ttl
func (c *CachedProvider) WithRedis(client *redis.Client, ttl time.Duration) *CachedProvider {
	c.redis = client
	c.ttl = ttl
	return c
}

// Len returns the number of securities held in the local cache
func (c *CachedProvider) Len() int {
	return c.local.Len()
}

func (c *CachedProvider) Security(ctx context.Context, id string, begin, end time.Time) (Security, error) {
	begin = calendar.Normalize(begin)
	end = calendar.Normalize(end)
	if err := checkRange(begin, end); err != nil {
		return nil, err
	}

	key := c.Key(id, begin, end)
	subLog := log.With().Str("SecurityID", id).Str("CacheKey", key).Logger()

	blob, err := c.get(ctx, key)
	if err != nil {
		subLog.Warn().Err(err).Msg("cache lookup failed; loading from provider")
	}

	if blob != nil {
		inst := &Instrument{}
		decodeErr := json.Unmarshal(blob, inst)
		if decodeErr == nil {
			subLog.Debug().Msg("cache hit")
			return inst, nil
		}
		subLog.Warn().Err(decodeErr).Msg("could not decode cached security")
	}

	sec, err := c.provider.Security(ctx, id, begin, end)
	if err != nil {
		return nil, err
	}

	blob, err = json.Marshal(toInstrument(sec))
	if err != nil {
		subLog.Warn().Err(err).Msg("could not encode security for cache")
		return sec, nil
	}

	if err := c.set(ctx, key, blob); err != nil {
		subLog.Warn().Err(err).Msg("could not store security in cache")
	}

	return sec, nil
}

// Key computes the cache key of a request as the hex encoded 16-byte blake3
// digest of the provider name, security id and date range
func (c *CachedProvider) Key(id string, begin, end time.Time) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", c.name, id, calendar.Format(begin), calendar.Format(end))

	buf := make([]byte, 16)
	if _, err := h.Digest().Read(buf); err != nil {
		log.Panic().Err(err).Msg("could not read blake3 digest")
	}

	return hex.EncodeToString(buf)
}

func (c *CachedProvider) get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.local.Get(key); ok {
		return Decompress(v.([]byte))
	}

	if c.redis == nil {
		return nil, nil
	}

	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// promote to the local tier
	c.local.Add(key, val)
	return Decompress(val)
}

func (c *CachedProvider) set(ctx context.Context, key string, blob []byte) error {
	compressed, err := Compress(blob)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.redis != nil {
		return c.redis.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

// toInstrument converts a security of any implementation into an Instrument so
// it can be serialized
func toInstrument(sec Security) *Instrument {
	if inst, ok := sec.(*Instrument); ok {
		return inst
	}

	inst := NewInstrument(sec.ID(), sec.Kind(), sec.TimeSeries(), sec.Description(), sec.Exposures())
	if weighted, ok := sec.(WeightedExposer); ok {
		inst.WithExposureWeights(weighted.ExposureWeights())
	}
	return inst
}

// Compress lz4 compresses in
func Compress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	_, err := io.Copy(zw, r)
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zr := lz4.NewReader(r)
	_, err := io.Copy(w, zr)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
