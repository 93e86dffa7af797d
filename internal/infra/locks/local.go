package locks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalLocker блокировки в памяти процесса. Используется, когда Redis выключен,
// и в тестах. Гарантии действуют только в пределах одного экземпляра сервиса.
type LocalLocker struct {
	mu    sync.Mutex
	owner map[string]entry
	now   func() time.Time
}

type entry struct {
	token     string
	expiresAt time.Time
}

// NewLocalLocker создает locker в памяти
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		owner: make(map[string]entry),
		now:   time.Now,
	}
}

// Acquire захватывает все ключи или ни одного
func (l *LocalLocker) Acquire(_ context.Context, keys []string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	taken := make([]string, 0)
	for _, key := range keys {
		if e, ok := l.owner[key]; ok && now.Before(e.expiresAt) {
			taken = append(taken, key)
		}
	}
	if len(taken) > 0 {
		return nil, &LockedError{Keys: taken}
	}

	for _, key := range keys {
		l.owner[key] = entry{token: token, expiresAt: now.Add(ttl)}
	}

	return func() { l.release(keys, token) }, nil
}

func (l *LocalLocker) release(keys []string, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range keys {
		if e, ok := l.owner[key]; ok && e.token == token {
			delete(l.owner, key)
		}
	}
}
