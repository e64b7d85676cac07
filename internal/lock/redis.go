package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
)

// KeyPrefix namespaces lock keys in Redis.
const KeyPrefix = "populate:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another run is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis server.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis creates a Redis locker. Locks expire after ttl so a crashed run
// cannot hold an entity forever.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to the Redis server at url and checks it answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.NewConfigError("redis", "invalid redis.url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapResource("ping", "redis", opts.Addr, err)
	}
	return client, nil
}

// Acquire implements Locker with SET NX PX and a random token.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	redisKey := KeyPrefix + key

	ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
	if err != nil {
		return nil, false, errors.WrapResource("acquire", "lock", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DefaultHTTPTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to release lock, it will expire")
		}
	}
	return release, true, nil
}
