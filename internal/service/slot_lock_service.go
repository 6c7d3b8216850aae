package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotLocked is returned when another request holds the slot lock
var ErrSlotLocked = errors.New("slot is locked by another booking")

const (
	RedisSlotLockKeyPrefix = "lock:slot:"

	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the lock only if it still holds our token, so a
// request whose lock expired never frees a lock taken by someone else.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// SlotLocker serializes booking attempts on one (doctor, date, time).
type SlotLocker interface {
	WithSlotLock(ctx context.Context, doctorID int, slot entity.SlotKey, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisSlotLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) SlotLocker {
	return &redisSlotLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func SlotLockKey(doctorID int, slot entity.SlotKey) string {
	return fmt.Sprintf("%s%d:%s:%s", RedisSlotLockKeyPrefix, doctorID, slot.Date, slot.Time)
}

// WithSlotLock runs fn while holding the slot lock. fn's context expires with
// the lock. If Redis is unreachable fn still runs; the store's unique index
// keeps the slot consistent.
func (l *redisSlotLocker) WithSlotLock(ctx context.Context, doctorID int, slot entity.SlotKey, fn func(ctx context.Context) error) error {
	key := SlotLockKey(doctorID, slot)
	token := uuid.NewString()

	ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.Warnf("Failed to acquire slot lock %s, continuing without it: %+v", key, err)
		return fn(ctx)
	}
	if !ok {
		return ErrSlotLocked
	}

	defer l.release(key, token)

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

func (l *redisSlotLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.redisClient, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.log.Warnf("Failed to release slot lock %s: %+v", key, err)
	}
}
