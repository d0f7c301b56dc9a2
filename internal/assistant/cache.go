// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/synapselearn/synapse/internal/platform/constants"
)

// # Reply Cache

// ReplyCache memoises tutor replies for identical messages.
type ReplyCache interface {

	/*
		Get returns the cached reply for the message, or ("", nil) on a miss.

		Parameters:
		  - context: context.Context
		  - message: string

		Returns:
		  - string: Cached reply, empty on miss
		  - error: Backend failures (a miss is not an error)
	*/
	Get(context context.Context, message string) (string, error)

	/*
		Set stores the reply for the message.

		Parameters:
		  - context: context.Context
		  - message: string
		  - reply: string

		Returns:
		  - error: Backend failures
	*/
	Set(context context.Context, message, reply string) error
}

// replyCacheTTL keeps cached replies fresh enough that repeated practice
// phrases still feel responsive without pinning stale model output forever.
const replyCacheTTL = 24 * time.Hour

// RedisReplyCache implements [ReplyCache] on Redis.
type RedisReplyCache struct {
	redisClient *redis.Client
}

// NewRedisReplyCache creates a Redis-backed reply cache.
func NewRedisReplyCache(redisClient *redis.Client) *RedisReplyCache {
	return &RedisReplyCache{redisClient: redisClient}
}

// Get implements [ReplyCache].
func (cache *RedisReplyCache) Get(context context.Context, message string) (string, error) {
	reply, err := cache.redisClient.Get(context, cacheKey(message)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Set implements [ReplyCache].
func (cache *RedisReplyCache) Set(context context.Context, message, reply string) error {
	return cache.redisClient.Set(context, cacheKey(message), reply, replyCacheTTL).Err()
}

// cacheKey digests the message so arbitrary learner input never becomes a
// raw Redis key.
func cacheKey(message string) string {
	digest := sha256.Sum256([]byte(message))
	return constants.RedisPrefixAssistantReply + hex.EncodeToString(digest[:])
}
