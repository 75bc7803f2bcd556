// Package retrypolicy decides when a failed job may run again. It is a pure
// function of attempt count and priority: no clock reads, no I/O, no state.
package retrypolicy

import (
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/models"
)

// MaxDelay caps the exponential backoff regardless of priority.
const MaxDelay = 30 * time.Minute

// Decision is the outcome of consulting the policy after a failed attempt.
type Decision struct {
	// Delay is how long to wait before the next attempt. Meaningless when
	// GiveUp is set.
	Delay time.Duration

	// GiveUp reports that attempts are exhausted and the job should move
	// to the terminal failed state.
	GiveUp bool
}

// baseDelay is the first-retry delay per priority. Urgent work retries
// sooner and more often than low-priority work.
func baseDelay(p models.Priority) time.Duration {
	switch p {
	case models.PriorityUrgent:
		return 2 * time.Second
	case models.PriorityHigh:
		return 5 * time.Second
	case models.PriorityNormal:
		return 15 * time.Second
	default:
		return time.Minute
	}
}

// maxAttempts is the total number of processing attempts allowed per priority.
func maxAttempts(p models.Priority) int {
	switch p {
	case models.PriorityUrgent:
		return 8
	case models.PriorityHigh:
		return 6
	case models.PriorityNormal:
		return 5
	default:
		return 3
	}
}

// NextAttempt maps the number of attempts already made to a backoff decision.
// Backoff doubles per attempt from the priority's base, capped at MaxDelay.
func NextAttempt(attempts int, p models.Priority) Decision {
	if attempts >= maxAttempts(p) {
		return Decision{GiveUp: true}
	}

	delay := baseDelay(p)
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= MaxDelay {
			delay = MaxDelay
			break
		}
	}
	return Decision{Delay: delay}
}
