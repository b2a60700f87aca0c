package service

import "time"

// lockoutThresholds define el bloqueo progresivo por cantidad de fallos.
var lockoutThresholds = []struct {
	attempts int
	lock     time.Duration
}{
	{attempts: 5, lock: 15 * time.Minute},
	{attempts: 10, lock: time.Hour},
	{attempts: 15, lock: 365 * 24 * time.Hour},
}

// lockoutFor devuelve la duración del bloqueo al alcanzar un umbral, o cero.
func lockoutFor(attempts int) time.Duration {
	for _, t := range lockoutThresholds {
		if attempts == t.attempts {
			return t.lock
		}
	}
	return 0
}
