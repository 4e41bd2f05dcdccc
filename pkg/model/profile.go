package model

// Profile is the account record of a signed-in user. The auth provider owns it.
type Profile struct {
	ID      string `json:"id" bson:"_id"`
	Email   string `json:"email" bson:"email"`
	IsAdmin bool   `json:"is_admin" bson:"is_admin"`
	GuideID *int64 `json:"guide_id,omitempty" bson:"guide_id,omitempty"`
}
