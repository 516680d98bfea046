package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// RedisHistoryStore keeps each session's turns in a Redis list whose TTL is
// extended on every append.
type RedisHistoryStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisHistoryStore(rdb redis.Cmdable, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{rdb: rdb, ttl: ttl}
}

func (r *RedisHistoryStore) sessionKey(sessionKey string) string {
	return fmt.Sprintf("sidekick:session:%s:turns", sessionKey)
}

func (r *RedisHistoryStore) Add(ctx context.Context, sessionKey string, turn model.ChatTurn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("session", sessionKey).Msg("failed to marshal chat turn")
		return errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	key := r.sessionKey(sessionKey)

	if r.ttl <= 0 {
		if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to push chat turn to redis")
			return errx.WrapRedis(err)
		}
		return nil
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	expire := pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push chat turn to redis")
		return errx.WrapRedis(err)
	}
	if !expire.Val() {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
	}
	return nil
}

func (r *RedisHistoryStore) List(ctx context.Context, sessionKey string) ([]model.ChatTurn, error) {
	key := r.sessionKey(sessionKey)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.ChatTurn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load chat history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.ChatTurn, 0, len(rows))
	for i, s := range rows {
		var t model.ChatTurn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			// a corrupt entry should not take the whole session down
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("skipping undecodable chat turn")
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisHistoryStore) Clear(ctx context.Context, sessionKey string) error {
	key := r.sessionKey(sessionKey)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete chat history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.HistoryStore = (*RedisHistoryStore)(nil)
