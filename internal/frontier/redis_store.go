package frontier

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key names used by the original crawler service.
const (
	DefaultQueueKey   = "url_queue"
	DefaultVisitedKey = "visited_urls"
)

// seedScript pushes ARGV[2:] onto the queue only if it is empty, ARGV[1] values per LPUSH.
// Returns the number pushed.
// Pushes go in chunks; unpacking more than a few thousand values overflows the Lua stack.
var seedScript = redis.NewScript(`
if redis.call('LLEN', KEYS[1]) > 0 then
	return 0
end
local chunk = tonumber(ARGV[1])
local total = #ARGV - 1
for i = 2, #ARGV, chunk do
	redis.call('LPUSH', KEYS[1], unpack(ARGV, i, math.min(i + chunk - 1, #ARGV)))
end
return total
`)

// seedChunk is how many values seedScript passes to one LPUSH.
const seedChunk = 1000

// RedisStore keeps the queue in a Redis list and the registry in a Redis set.
// URLs are pushed at the head (LPUSH) and popped from the tail (RPOP), so the
// list is FIFO and RPOP's atomicity gives exactly-once hand-off.
type RedisStore struct {
	client     *redis.Client
	queueKey   string
	visitedKey string
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &StoreError{Op: "ping", Key: addr, Err: err}
	}
	return client, nil
}

// NewRedisStore wraps an existing client. Empty keys fall back to the defaults.
func NewRedisStore(client *redis.Client, queueKey, visitedKey string) *RedisStore {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	if visitedKey == "" {
		visitedKey = DefaultVisitedKey
	}
	return &RedisStore{
		client:     client,
		queueKey:   queueKey,
		visitedKey: visitedKey,
	}
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Enqueue appends urls at the queue head in order; no deduplication.
func (s *RedisStore) Enqueue(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := s.client.LPush(ctx, s.queueKey, toArgs(urls)...).Err(); err != nil {
		return &StoreError{Op: "lpush", Key: s.queueKey, Err: err}
	}
	return nil
}

// Dequeue pops the oldest pending URL.
func (s *RedisStore) Dequeue(ctx context.Context) (string, bool, error) {
	url, err := s.client.RPop(ctx, s.queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, &StoreError{Op: "rpop", Key: s.queueKey, Err: err}
	}
	return url, true, nil
}

// Len returns the number of pending entries, duplicates included.
func (s *RedisStore) Len(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.queueKey).Result()
	if err != nil {
		return 0, &StoreError{Op: "llen", Key: s.queueKey, Err: err}
	}
	return n, nil
}

// SeedIfEmpty runs the length check and the push as one script.
func (s *RedisStore) SeedIfEmpty(ctx context.Context, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	args := append([]any{seedChunk}, toArgs(urls)...)
	n, err := seedScript.Run(ctx, s.client, []string{s.queueKey}, args...).Int()
	if err != nil {
		return 0, &StoreError{Op: "seed", Key: s.queueKey, Err: err}
	}
	return n, nil
}

// Contains tests registry membership.
func (s *RedisStore) Contains(ctx context.Context, url string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.visitedKey, url).Result()
	if err != nil {
		return false, &StoreError{Op: "sismember", Key: s.visitedKey, Err: err}
	}
	return ok, nil
}

// Mark adds url to the registry. SADD's reply tells whether this call inserted it.
func (s *RedisStore) Mark(ctx context.Context, url string) (bool, error) {
	n, err := s.client.SAdd(ctx, s.visitedKey, url).Result()
	if err != nil {
		return false, &StoreError{Op: "sadd", Key: s.visitedKey, Err: err}
	}
	return n == 1, nil
}

// Size returns the registry cardinality.
func (s *RedisStore) Size(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.visitedKey).Result()
	if err != nil {
		return 0, &StoreError{Op: "scard", Key: s.visitedKey, Err: err}
	}
	return n, nil
}

func toArgs(urls []string) []any {
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	return args
}
