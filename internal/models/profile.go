package models

import "time"

// Travel styles accepted by profile upserts.
const (
	TravelStyleBudget    = "budget"
	TravelStyleLuxury    = "luxury"
	TravelStyleAdventure = "adventure"
)

// Profile is user-editable travel-preference data stored in Mongo and
// keyed by the identity provider's UID. One profile per user.
type Profile struct {
	UserID                 string    `json:"user_id" bson:"user_id"`
	DestinationPreferences []string  `json:"destination_preferences" bson:"destination_preferences"`
	Interests              []string  `json:"interests" bson:"interests"`
	TravelStyle            string    `json:"travel_style,omitempty" bson:"travel_style,omitempty"`
	Bio                    string    `json:"bio,omitempty" bson:"bio,omitempty"`
	CreatedAt              time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" bson:"updated_at"`
}

// PublicProfile is safe to share with other authenticated users.
type PublicProfile struct {
	UserID                 string   `json:"user_id"`
	DestinationPreferences []string `json:"destination_preferences"`
	Interests              []string `json:"interests"`
	TravelStyle            string   `json:"travel_style,omitempty"`
	Bio                    string   `json:"bio,omitempty"`
}

// Public strips the timestamps other users have no business seeing.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		UserID:                 p.UserID,
		DestinationPreferences: p.DestinationPreferences,
		Interests:              p.Interests,
		TravelStyle:            p.TravelStyle,
		Bio:                    p.Bio,
	}
}

// UpsertProfileRequest carries a partial profile update. List fields
// replace the stored lists wholesale when present; travel_style and bio
// are set only when present.
type UpsertProfileRequest struct {
	DestinationPreferences *[]string `json:"destination_preferences"`
	Interests              *[]string `json:"interests"`
	TravelStyle            *string   `json:"travel_style" validate:"omitempty,oneof=budget luxury adventure"`
	Bio                    *string   `json:"bio" validate:"omitempty,max=500"`
}
