package clock

import "time"

// SystemClock reports wall-clock time in UTC. Location samples are stamped with it.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
