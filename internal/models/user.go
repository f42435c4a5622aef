package models

import "time"

// Gender values accepted on registration.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// AboutMeMaxLength caps the bio field.
const AboutMeMaxLength = 500

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type Phone struct {
	AreaCode string `bson:"areaCode,omitempty" json:"areaCode,omitempty"`
	Number   string `bson:"number,omitempty" json:"number,omitempty"`
}

type User struct {
	ID                 string    `bson:"_id,omitempty" json:"_id"`
	FirstName          string    `bson:"firstName" json:"firstName"`
	LastName           string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email              string    `bson:"email" json:"email"`
	Password           string    `bson:"password,omitempty" json:"-"`
	Gender             string    `bson:"gender,omitempty" json:"gender,omitempty"`
	JobTitle           string    `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	RelationshipStatus string    `bson:"relationshipStatus,omitempty" json:"relationshipStatus,omitempty"`
	City               string    `bson:"city,omitempty" json:"city,omitempty"`
	State              string    `bson:"state,omitempty" json:"state,omitempty"`
	Country            string    `bson:"country,omitempty" json:"country,omitempty"`
	Phone              *Phone    `bson:"phone,omitempty" json:"phone,omitempty"`
	AboutMe            string    `bson:"aboutMe,omitempty" json:"aboutMe,omitempty"`
	CreatedAt          time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// UserProfile is the read model for a single user: the account joined with
// its pictures and both sides of the follow graph. Password never serializes.
type UserProfile struct {
	User
	ProfilePictures []Picture `json:"profilePictures"`
	Followers       []Follow  `json:"followers"`
	Followings      []Follow  `json:"followings"`
}

// UserSummary is a user with their primary profile picture, as listed in
// follower/following views.
type UserSummary struct {
	User
	ProfilePicture *Picture `json:"profilePicture,omitempty"`
}

// AuthUser is the login response payload: the profile plus a fresh token pair.
type AuthUser struct {
	UserProfile
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
