package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockUnavailable indicates another operation held the alert for longer than the wait.
var ErrLockUnavailable = errors.New("alert is locked by another operation")

const lockPollInterval = 25 * time.Millisecond

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// AlertLocker serializes operations on one alert.
type AlertLocker interface {
	Lock(ctx context.Context, alertID uint) (unlock func(), err error)
}

type keyedLock struct {
	slot chan struct{}
	refs int
}

type alertLocker struct {
	mu     sync.Mutex
	locks  map[uint]*keyedLock
	redis  *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger zerolog.Logger
}

// NewAlertLocker builds a locker that serializes within the process and, when a Redis
// client is supplied, across replicas.
func NewAlertLocker(redisClient *redis.Client, ttl, wait time.Duration, logger zerolog.Logger) AlertLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &alertLocker{
		locks:  make(map[uint]*keyedLock),
		redis:  redisClient,
		ttl:    ttl,
		wait:   wait,
		logger: logger.With().Str("component", "alert_lock").Logger(),
	}
}

func alertLockKey(alertID uint) string {
	return fmt.Sprintf("retention:alert:%d:lock", alertID)
}

func (l *alertLocker) Lock(ctx context.Context, alertID uint) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	unlockLocal, err := l.lockLocal(waitCtx, alertID)
	if err != nil {
		return nil, err
	}

	if l.redis == nil {
		return unlockLocal, nil
	}

	unlockRemote, err := l.lockRemote(waitCtx, alertID)
	if err != nil {
		if errors.Is(err, ErrLockUnavailable) {
			unlockLocal()
			return nil, err
		}
		// Redis being down leaves the store's compare-and-swap as the guard.
		l.logger.Warn().Err(err).Uint("alert_id", alertID).Msg("distributed lock unavailable, continuing with local lock")
		return unlockLocal, nil
	}

	return func() {
		unlockRemote()
		unlockLocal()
	}, nil
}

func (l *alertLocker) lockLocal(ctx context.Context, alertID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[alertID]
	if !ok {
		entry = &keyedLock{slot: make(chan struct{}, 1)}
		l.locks[alertID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	release := func() {
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, alertID)
		}
		l.mu.Unlock()
	}

	select {
	case entry.slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.slot
				release()
			})
		}, nil
	case <-ctx.Done():
		release()
		return nil, ErrLockUnavailable
	}
}

func (l *alertLocker) lockRemote(ctx context.Context, alertID uint) (func(), error) {
	key := alertLockKey(alertID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockUnavailable
			}
			return nil, err
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.redis, []string{key}, token).Err(); err != nil {
					l.logger.Warn().Err(err).Uint("alert_id", alertID).Msg("failed to release distributed lock")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockUnavailable
		case <-ticker.C:
		}
	}
}
