package profile

import (
	"github.com/janisto/carpool-signup/internal/platform/timeutil"
)

// Profile represents a carpool profile response.
type Profile struct {
	ID          string        `json:"id"                    doc:"Unique identifier"     example:"user-123"`
	Name        string        `json:"name"                  doc:"Full name"             example:"Jane Doe"`
	Email       string        `json:"email"                 doc:"Email address"         example:"jane@example.com"`
	Address     string        `json:"address"               doc:"Pickup address"        example:"1 Elm St"`
	Vehicle     string        `json:"vehicle"               doc:"Vehicle"               example:"Blue minivan"`
	Kids        string        `json:"kids"                  doc:"Number of kids"        example:"2"`
	PhoneNumber string        `json:"phoneNumber,omitempty" doc:"Verified phone number" example:"+19876543210"`
	CreatedAt   timeutil.Time `json:"createdAt"             doc:"Creation timestamp"    example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time `json:"updatedAt"             doc:"Last update timestamp" example:"2024-01-15T10:30:00.000Z"`
}
