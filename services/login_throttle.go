package services

import (
	"sync"
	"time"
)

const throttleCooldownCapSeconds = 30

type throttleEntry struct {
	failCount     int
	cooldownUntil time.Time
}

// LoginThrottle slows down password guessing per username: each failure
// sets a cooldown of min(30, 2^failCount) seconds, a success clears it.
type LoginThrottle struct {
	mu      sync.Mutex
	entries map[string]throttleEntry
	now     func() time.Time
}

func NewLoginThrottle() *LoginThrottle {
	return &LoginThrottle{entries: make(map[string]throttleEntry), now: time.Now}
}

// WaitSeconds returns how long username must wait before trying again (0 if no cooldown).
func (t *LoginThrottle) WaitSeconds(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[username]
	if !ok {
		return 0
	}
	now := t.now()
	if now.Before(e.cooldownUntil) {
		return int(e.cooldownUntil.Sub(now).Seconds()) + 1 // round up
	}
	return 0
}

func (t *LoginThrottle) RecordFailed(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[username]
	e.failCount++
	e.cooldownUntil = t.now().Add(time.Duration(CooldownSecondsForFailCount(e.failCount)) * time.Second)
	t.entries[username] = e
}

func (t *LoginThrottle) RecordSuccess(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, username)
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	if failCount <= 0 {
		return 1
	}
	// 2^5 is past the cap.
	if failCount >= 5 {
		return throttleCooldownCapSeconds
	}
	return 1 << failCount
}
