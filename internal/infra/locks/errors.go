package locks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocked возвращается, когда хотя бы один ключ уже захвачен другим владельцем
	ErrLocked = errors.New("locks: key already locked")

	// ErrUnexpectedReply некорректный ответ Lua-скрипта
	ErrUnexpectedReply = errors.New("locks: unexpected script reply")
)

// LockedError список ключей, которые держит другой владелец
type LockedError struct {
	Keys []string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrLocked, strings.Join(e.Keys, ", "))
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}
