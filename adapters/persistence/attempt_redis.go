package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/folio/internal/domain/lockout"
)

const attemptKeyPrefix = "pin_attempts:"

// redisAttemptStore keeps one hash per caller. While locked, the key TTL is
// the lock: LockUntil is rebuilt from PTTL on load, so every API instance
// agrees on the remaining time without comparing wall clocks.
type redisAttemptStore struct {
	rdb    *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewRedisAttemptStore(rdb *redis.Client, window time.Duration) lockout.Store {
	return &redisAttemptStore{rdb: rdb, window: window, now: time.Now}
}

func (s *redisAttemptStore) key(k string) string {
	return attemptKeyPrefix + k
}

func (s *redisAttemptStore) Load(ctx context.Context, key string) (lockout.State, error) {
	k := s.key(key)

	var fields *redis.MapStringStringCmd
	var ttl *redis.DurationCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		fields = p.HGetAll(ctx, k)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return lockout.State{}, fmt.Errorf("load attempts: %w", err)
	}

	vals := fields.Val()
	if len(vals) == 0 {
		return lockout.State{}, nil
	}

	attempts, err := strconv.Atoi(vals["attempts"])
	if err != nil {
		return lockout.State{}, fmt.Errorf("malformed attempts value %q: %w", vals["attempts"], err)
	}
	st := lockout.State{Attempts: attempts}
	if vals["locked"] == "1" {
		if remaining := ttl.Val(); remaining > 0 {
			st.LockUntil = s.now().Add(remaining)
		}
	}
	return st, nil
}

// reserveScript is Policy.Reserve on the stored hash. It returns
// {allowed, attempts, ttl_ms}; ttl_ms is the lock left when refused and the
// new lock when this attempt started one.
var reserveScript = redis.NewScript(`
local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
if redis.call('HGET', KEYS[1], 'locked') == '1' then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		return {0, attempts, ttl}
	end
	attempts = 0
end
attempts = attempts + 1
if attempts >= tonumber(ARGV[1]) then
	redis.call('HSET', KEYS[1], 'attempts', attempts, 'locked', '1')
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	return {1, attempts, tonumber(ARGV[2])}
end
redis.call('HSET', KEYS[1], 'attempts', attempts, 'locked', '0')
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
else
	redis.call('PERSIST', KEYS[1])
end
return {1, attempts, 0}
`)

func (s *redisAttemptStore) Reserve(ctx context.Context, key string, p lockout.Policy, now time.Time) (lockout.State, lockout.Decision, error) {
	res, err := reserveScript.Run(ctx, s.rdb, []string{s.key(key)},
		p.MaxAttempts, p.Duration.Milliseconds(), s.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return lockout.State{}, lockout.Decision{}, fmt.Errorf("reserve attempt: %w", err)
	}
	if len(res) != 3 {
		return lockout.State{}, lockout.Decision{}, fmt.Errorf("reserve attempt: unexpected reply %v", res)
	}

	st := lockout.State{Attempts: int(res[1])}
	if res[2] > 0 {
		st.LockUntil = now.Add(time.Duration(res[2]) * time.Millisecond)
	}
	if res[0] == 0 {
		return st, lockout.Decision{Allowed: false, RemainingSeconds: lockout.RemainingSeconds(st.LockUntil, now)}, nil
	}
	return st, lockout.Decision{Allowed: true}, nil
}

func (s *redisAttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}
