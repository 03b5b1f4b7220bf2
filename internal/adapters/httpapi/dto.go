package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime/types"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

type CrewMember struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Email          string                    `json:"email"`
	Role           string                    `json:"role"`
	OrganizationID string                    `json:"organization_id"`
	UserID         nullable.Nullable[string] `json:"user_id"`
	CreatedAt      time.Time                 `json:"created_at"`
}

type Location struct {
	ID           string    `json:"id"`
	CrewMemberID string    `json:"crew_member_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

type RecordLocationRequest struct {
	CrewMemberID *string  `json:"crew_member_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type AddCrewMemberRequest struct {
	Name  string      `json:"name"`
	Email types.Email `json:"email"`
	Role  string      `json:"role"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

type UserDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func crewMemberFromDomain(m domain.CrewMember) CrewMember {
	out := CrewMember{
		ID:             string(m.ID),
		Name:           m.Name,
		Email:          m.Email,
		Role:           m.Role,
		OrganizationID: string(m.OrganizationID),
		UserID:         nullable.NewNullNullable[string](),
		CreatedAt:      m.CreatedAt.UTC(),
	}
	if m.UserID != nil {
		out.UserID = nullable.NewNullableWithValue(string(*m.UserID))
	}
	return out
}

func locationFromDomain(s domain.LocationSample) Location {
	return Location{
		ID:           string(s.ID),
		CrewMemberID: string(s.CrewMemberID),
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Timestamp:    s.Timestamp.UTC(),
	}
}
