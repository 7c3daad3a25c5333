package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := RegisterStorage(new(RedisDB)); err != nil {
		panic(err)
	}
}

const (
	// RedisAddressOption is the address of the redis server
	RedisAddressOption OptionKey = "redis-address-option"
	// RedisPasswordOption is the password of the redis server
	RedisPasswordOption OptionKey = "redis-password-option"

	pong               = "PONG"
	redisScanBatchSize = 1000
)

// RedisDB is a redis-backed implementation of ServiceStorage. Namespaces are encoded
// as key prefixes since redis has no native bucket concept.
type RedisDB struct {
	db *goredislib.Client
}

func (b *RedisDB) Init(opts ...Option) error {
	address, ok := stringOption(RedisAddressOption, opts...)
	if !ok {
		return errors.New("redis address option is required")
	}
	password, _ := stringOption(RedisPasswordOption, opts...)

	b.db = goredislib.NewClient(&goredislib.Options{
		Addr:     address,
		Password: password,
	})
	return nil
}

func (b *RedisDB) Type() Type {
	return Redis
}

func (b *RedisDB) URI() string {
	return b.db.Options().Addr
}

func (b *RedisDB) IsOpen() bool {
	result, err := b.db.Ping(context.Background()).Result()
	if err != nil {
		logrus.WithError(err).Error("pinging redis")
		return false
	}
	return result == pong
}

func (b *RedisDB) Close() error {
	return b.db.Close()
}

func (b *RedisDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	// Zero expiration means the key has no expiration time.
	return b.db.Set(ctx, getRedisKey(namespace, key), value, 0).Err()
}

func (b *RedisDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	value, err := b.db.Get(ctx, getRedisKey(namespace, key)).Bytes()
	if errors.Is(err, goredislib.Nil) {
		return nil, nil
	}
	return value, err
}

func (b *RedisDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	count, err := b.db.Exists(ctx, getRedisKey(namespace, key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (b *RedisDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	keys, err := b.readAllKeys(ctx, namespace)
	if err != nil {
		return nil, errors.Wrap(err, "reading all keys")
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := b.db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting multiple keys")
	}
	if len(keys) != len(values) {
		return nil, errors.New("key length does not match value length")
	}

	prefixLen := len(namespace) + 1
	result := make(map[string][]byte, len(keys))
	for i, val := range values {
		s, ok := val.(string)
		if !ok {
			continue
		}
		result[keys[i][prefixLen:]] = []byte(s)
	}
	return result, nil
}

func (b *RedisDB) ReadAllKeys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := b.readAllKeys(ctx, namespace)
	if err != nil {
		return nil, err
	}
	prefixLen := len(namespace) + 1
	stripped := make([]string, 0, len(keys))
	for _, k := range keys {
		stripped = append(stripped, k[prefixLen:])
	}
	return stripped, nil
}

func (b *RedisDB) readAllKeys(ctx context.Context, namespace string) ([]string, error) {
	var cursor uint64
	allKeys := make([]string, 0)
	for {
		keys, nextCursor, err := b.db.Scan(ctx, cursor, getRedisKey(namespace, "")+"*", redisScanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scanning keys")
		}
		allKeys = append(allKeys, keys...)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return allKeys, nil
}

func (b *RedisDB) Delete(ctx context.Context, namespace, key string) error {
	return b.db.Del(ctx, getRedisKey(namespace, key)).Err()
}

func (b *RedisDB) DeleteNamespace(ctx context.Context, namespace string) error {
	keys, err := b.readAllKeys(ctx, namespace)
	if err != nil {
		return errors.Wrap(err, "reading all keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return b.db.Del(ctx, keys...).Err()
}

func getRedisKey(namespace, key string) string {
	return fmt.Sprintf("%s-%s", namespace, key)
}

var _ ServiceStorage = (*RedisDB)(nil)
