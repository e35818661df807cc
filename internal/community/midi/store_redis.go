// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/constants"
)

// RedisHandleRepository implements [HandleRepository] using Redis.
//
// Handles are volatile by nature: they exist only between the charge and the
// file fetch, so a TTL'd Redis key is the whole persistence story.
type RedisHandleRepository struct {
	client *redis.Client
}

// NewHandleRepository creates a new Redis-backed HandleRepository.
func NewHandleRepository(client *redis.Client) *RedisHandleRepository {
	return &RedisHandleRepository{client: client}
}

/*
Store saves a handle bound to a (user, midi) pair with a TTL.

Parameters:
  - context: context.Context
  - handle: string
  - userID: string
  - midiID: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (repository *RedisHandleRepository) Store(context context.Context, handle, userID, midiID string, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixDownloadHandle + handle

	// The value binds the handle to both parties of the grant.
	value := userID + ":" + midiID

	if err := repository.client.Set(context, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis_handle_store_failed: %w", err)
	}

	return nil
}

/*
Redeem consumes a handle and returns its binding.

Description: GETDEL makes redemption single-use; a second redeem of the same
handle behaves exactly like an expired one.

Parameters:
  - context: context.Context
  - handle: string

Returns:
  - string: userID
  - string: midiID
  - error: apperr.NotFound for unknown, used, or expired handles
*/
func (repository *RedisHandleRepository) Redeem(context context.Context, handle string) (string, string, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixDownloadHandle + handle

	value, err := repository.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", apperr.NotFound("Download handle is invalid or expired")
		}
		return "", "", fmt.Errorf("redis_handle_redeem_failed: %w", err)
	}

	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", "", apperr.NotFound("Download handle is invalid or expired")
	}

	return parts[0], parts[1], nil
}
