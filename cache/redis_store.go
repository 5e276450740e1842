package cache

import (
	"context"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/leeforge/captcha/captcha"
)

// DefaultPrefix redis 键前缀
const DefaultPrefix = "captcha:"

// RedisStore 基于 redis 的验证码存储，过期交给 redis TTL 处理
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ captcha.Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Key 生成缓存键
func (s *RedisStore) Key(id string) string {
	return s.prefix + "answer:" + id
}

func (s *RedisStore) Save(ctx context.Context, id string, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.Key(id), answer, ttl).Err(); err != nil {
		return captcha.ErrGenerationFailed.WithMessage("failed to store captcha").WithInnerError(err)
	}
	return nil
}

// Get 获取答案。redis 不区分过期和不存在，统一返回 ErrCaptchaNotFound
func (s *RedisStore) Get(ctx context.Context, id string) (string, error) {
	answer, err := s.client.Get(ctx, s.Key(id)).Result()
	if err == redis.Nil {
		return "", captcha.ErrCaptchaNotFound.WithDetail("id", id)
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.Key(id)).Err()
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
