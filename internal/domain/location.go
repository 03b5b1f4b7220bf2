package domain

import "time"

// LocationSample is one reported GPS fix. Samples are append-only.
type LocationSample struct {
	ID           LocationID
	CrewMemberID CrewMemberID
	Latitude     float64
	Longitude    float64
	Timestamp    time.Time
}
