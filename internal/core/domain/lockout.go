package domain

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy is the pure decision logic for the brute-force lockout state
// machine over (loginAttempts, lockUntil). Lock state is derived, never
// stored as a boolean: a lockUntil in the past is equivalent to "not locked".
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the 5-attempts / 15-minute policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// IsLocked reports whether lockUntil marks an active lockout window at now.
func (p LockoutPolicy) IsLocked(lockUntil *time.Time, now time.Time) bool {
	return lockUntil != nil && lockUntil.After(now)
}

// OnFailure applies the failed-attempt transition and returns the new
// counter state. An expired lock is treated as a fresh unlocked state before
// counting this failure; otherwise the counter increments and the lock is set
// once the threshold is reached while not already locked.
func (p LockoutPolicy) OnFailure(attempts int, lockUntil *time.Time, now time.Time) (int, *time.Time) {
	if lockUntil != nil && !lockUntil.After(now) {
		return 1, nil
	}
	attempts++
	if attempts >= p.Threshold && !p.IsLocked(lockUntil, now) {
		until := now.Add(p.Duration)
		return attempts, &until
	}
	return attempts, lockUntil
}

// OnSuccess applies the successful-authentication transition: counters reset
// regardless of prior state.
func (p LockoutPolicy) OnSuccess() (int, *time.Time) {
	return 0, nil
}
