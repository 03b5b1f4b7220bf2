package locationfeed

import "github.com/fieldcrew/crew-tracker-api/internal/domain"

// Publisher fans newly recorded samples out to live subscribers.
// Publishing is best-effort and must not block the caller on slow subscribers.
type Publisher interface {
	Publish(s domain.LocationSample)
}
