package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/redis/go-redis/v9"
)

const (
	redisExecutionPrefix = "netemu:execution:"
	redisExecutionIndex  = "netemu:executions"
	redisClusterKey      = "netemu:cluster"
)

// RedisOptions configures the Redis metastore connection
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// Timeout bounds every metastore round trip
	Timeout time.Duration
}

// RedisStore implements Store on top of a shared Redis server, so several
// physical hosts read the same executions
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379/0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.Timeout
	redisOpts.ReadTimeout = opts.Timeout
	redisOpts.WriteTimeout = opts.Timeout

	s := &RedisStore{client: redis.NewClient(redisOpts), timeout: opts.Timeout}
	if err := s.Ping(); err != nil {
		s.client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return s, nil
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) Ping() error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) SaveExecution(exec *types.Execution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return err
	}
	key := exec.ID().Key()

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisExecutionPrefix+key, data, 0)
		pipe.SAdd(ctx, redisExecutionIndex, key)
		return nil
	})
	return err
}

func (s *RedisStore) GetExecution(id types.ExecutionID) (*types.Execution, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.client.Get(ctx, redisExecutionPrefix+id.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var exec types.Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *RedisStore) ListExecutions() ([]*types.Execution, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	keys, err := s.client.SMembers(ctx, redisExecutionIndex).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisExecutionPrefix + k
	}
	values, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}

	var execs []*types.Execution
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// removed between SMEMBERS and MGET
			continue
		}
		var exec types.Execution
		if err := json.Unmarshal([]byte(str), &exec); err != nil {
			return nil, err
		}
		execs = append(execs, &exec)
	}
	return execs, nil
}

func (s *RedisStore) ListExecutionsByEmulation(emulation string) ([]*types.Execution, error) {
	execs, err := s.ListExecutions()
	if err != nil {
		return nil, err
	}
	return filterByEmulation(execs, emulation), nil
}

func (s *RedisStore) DeleteExecution(id types.ExecutionID) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisExecutionPrefix+id.Key())
		pipe.SRem(ctx, redisExecutionIndex, id.Key())
		return nil
	})
	return err
}

func (s *RedisStore) SaveClusterConfig(cfg *types.ClusterConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Set(ctx, redisClusterKey, data, 0).Err()
}

func (s *RedisStore) GetClusterConfig() (*types.ClusterConfig, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.client.Get(ctx, redisClusterKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cluster config: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var cfg types.ClusterConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
