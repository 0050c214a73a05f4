package politeness

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the per-host keys.
const DefaultKeyPrefix = "politeness:"

// reserveScript stores the last granted slot (unix µs) per host and returns the
// next one: max(now, last+interval). The key outlives the slot by one interval.
var reserveScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local grant = now
local last = redis.call('GET', KEYS[1])
if last then
	local nextAllowed = tonumber(last) + interval
	if nextAllowed > grant then
		grant = nextAllowed
	end
end
local ttl = math.ceil(((grant - now) + interval) / 1000)
redis.call('SET', KEYS[1], string.format('%d', grant), 'PX', string.format('%d', ttl))
return grant
`)

// RedisGate shares per-host politeness state between every worker process
// using the same Redis. Grants are computed from the caller's clock, so hosts
// running workers are assumed to be NTP-synchronized.
type RedisGate struct {
	client   *redis.Client
	prefix   string
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRedisGate returns a shared gate enforcing interval per host.
func NewRedisGate(client *redis.Client, prefix string, interval time.Duration) *RedisGate {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisGate{
		client:   client,
		prefix:   prefix,
		interval: interval,
		now:      time.Now,
		sleep:    sleepUntil,
	}
}

// Wait reserves the host's next slot in Redis and sleeps until it.
// Slots are kept in microseconds and the interval is rounded up, never down.
func (g *RedisGate) Wait(ctx context.Context, host string) (time.Time, error) {
	if g.interval <= 0 {
		return g.now(), ctx.Err()
	}
	now := g.now()
	grantMicros, err := reserveScript.Run(ctx, g.client, []string{g.prefix + host},
		now.UnixMicro(), ceilMicros(g.interval)).Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("reserve politeness slot for %s: %w", host, err)
	}
	grant := time.UnixMicro(grantMicros)
	// Measure from the truncated clock so dropped sub-µs digits cannot shorten the wait.
	if err := g.sleep(ctx, grant.Sub(now.Truncate(time.Microsecond))); err != nil {
		return time.Time{}, err
	}
	return grant, nil
}

func ceilMicros(d time.Duration) int64 {
	us := int64(d / time.Microsecond)
	if d%time.Microsecond != 0 {
		us++
	}
	return us
}
