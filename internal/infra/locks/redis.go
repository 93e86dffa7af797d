package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Захват всех ключей или ни одного.
// KEYS = ключи слотов, ARGV[1] = токен владельца, ARGV[2] = ttl в миллисекундах.
// Ответ: {1} при успехе, {0, key1, key2, ...} со списком занятых ключей.
var acquireScript = redis.NewScript(`
local taken = {}
for i = 1, #KEYS do
    local owner = redis.call("GET", KEYS[i])
    if owner and owner ~= ARGV[1] then
        table.insert(taken, KEYS[i])
    end
end

if #taken > 0 then
    local reply = {0}
    for i = 1, #taken do
        table.insert(reply, taken[i])
    end
    return reply
end

for i = 1, #KEYS do
    redis.call("SET", KEYS[i], ARGV[1], "PX", ARGV[2])
end
return {1}
`)

// Снимает только ключи, принадлежащие владельцу
var releaseScript = redis.NewScript(`
local released = 0
for i = 1, #KEYS do
    if redis.call("GET", KEYS[i]) == ARGV[1] then
        redis.call("DEL", KEYS[i])
        released = released + 1
    end
end
return released
`)

// RedisLocker распределённые блокировки слотов на время резервирования
type RedisLocker struct {
	client *redis.Client
	logger Logger
}

// NewRedisLocker создает locker поверх go-redis клиента
func NewRedisLocker(client *redis.Client, logger Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

// Preload загружает скрипты в Redis, чтобы первые вызовы шли через EVALSHA
func (l *RedisLocker) Preload(ctx context.Context) error {
	if err := acquireScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("locks: load acquire script: %w", err)
	}
	if err := releaseScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("locks: load release script: %w", err)
	}
	return nil
}

// Acquire захватывает все ключи атомарно. При конфликте возвращает *LockedError.
func (l *RedisLocker) Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	// Run пробует EVALSHA и при NOSCRIPT выполняет EVAL
	reply, err := acquireScript.Run(ctx, l.client, keys, token, ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, fmt.Errorf("locks: acquire: %w", err)
	}

	if len(reply) == 0 {
		return nil, ErrUnexpectedReply
	}
	ok, isInt := reply[0].(int64)
	if !isInt {
		return nil, ErrUnexpectedReply
	}

	if ok == 0 {
		taken := make([]string, 0, len(reply)-1)
		for _, v := range reply[1:] {
			if key, isStr := v.(string); isStr {
				taken = append(taken, key)
			}
		}
		return nil, &LockedError{Keys: taken}
	}

	unlock := func() {
		// Контекст запроса мог быть отменён, снимаем блокировку отдельным
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, keys, token).Err(); err != nil {
			l.logger.Warn("locks: failed to release %d keys: %v", len(keys), err)
		}
	}

	return unlock, nil
}
