package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/hysios/zkregistry/config"
)

// RedisProvider is a config provider that reads a JSON document from redis.
type RedisProvider struct {
	rdb  *redis.Client
	Key  string
	vals config.Map
}

type RedisOption struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Mock     *redis.Client
}

// NewRedisProvider returns a new RedisProvider.
func NewRedisProvider(options *RedisOption) (*RedisProvider, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})

	if options.Mock != nil {
		rdb = options.Mock
	}

	_, err := rdb.Ping(rdb.Context()).Result()
	if err != nil {
		return nil, err
	}

	return &RedisProvider{rdb: rdb, Key: options.Key}, nil
}

// MustRedisProvider returns a new RedisProvider or panics.
func MustRedisProvider(options *RedisOption) *RedisProvider {
	p, err := NewRedisProvider(options)
	if err != nil {
		panic(err)
	}
	return p
}

// load get value from redis
func (p *RedisProvider) load() (val config.Map, ok bool) {
	var ctx = context.Background()
	rslt, err := p.rdb.Get(ctx, p.Key).Result()
	if err != nil {
		return
	}

	val = make(map[string]interface{})

	if err = json.Unmarshal([]byte(rslt), &val); err != nil {
		return nil, false
	}

	return val, true
}

// LookupPath returns the value of the given selector.
func (p *RedisProvider) LookupPath(selector string) (val *config.Value, ok bool) {
	if p.vals == nil {
		p.vals, ok = p.load()
		if !ok {
			return
		}
	}

	val = p.vals.Get(selector)
	ok = !val.IsNil()
	return
}

// Data returns the data of the provider.
func (p *RedisProvider) Data() config.Map {
	if p.vals == nil {
		p.vals, _ = p.load()
		if p.vals == nil {
			p.vals = config.Map{}
		}
	}
	return p.vals
}
