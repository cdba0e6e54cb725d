package models

import (
	"slices"
	"time"
)

const (
	UsersCollection     = "users"
	UsernamesCollection = "usernames"
)

// Profile is the persisted user record, stored under users/{uid}.
type Profile struct {
	UID       string    `json:"uid" firestore:"uid"`
	Email     string    `json:"email" firestore:"email"`
	Name      string    `json:"name" firestore:"name"`
	Bio       string    `json:"bio" firestore:"bio"`
	Image     string    `json:"image" firestore:"image"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	Polls     []string  `json:"polls" firestore:"polls"`
	YesVotes  []string  `json:"yesVotes" firestore:"yesVotes"`
	NoVotes   []string  `json:"noVotes" firestore:"noVotes"`
	Followers []string  `json:"followers" firestore:"followers"`
	Following []string  `json:"following" firestore:"following"`
}

// Profile field names used by field-level updates.
const (
	FieldName      = "name"
	FieldBio       = "bio"
	FieldImage     = "image"
	FieldPolls     = "polls"
	FieldYesVotes  = "yesVotes"
	FieldNoVotes   = "noVotes"
	FieldFollowers = "followers"
	FieldFollowing = "following"
)

// UsernameReservation is stored under usernames/{name} and points back at the
// owning profile.
type UsernameReservation struct {
	UID string `json:"uid" firestore:"uid"`
}

// Identity is what an auth provider knows about a freshly authenticated user.
type Identity struct {
	UID   string
	Email string
	Image string
}

// ProfileEdits are the user editable profile fields.
type ProfileEdits struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Image string `json:"image"`
}

// Normalize replaces nil lists with empty ones so documents always carry
// arrays.
func (p *Profile) Normalize() {
	for _, l := range []*[]string{&p.Polls, &p.YesVotes, &p.NoVotes, &p.Followers, &p.Following} {
		if *l == nil {
			*l = []string{}
		}
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Polls = slices.Clone(p.Polls)
	c.YesVotes = slices.Clone(p.YesVotes)
	c.NoVotes = slices.Clone(p.NoVotes)
	c.Followers = slices.Clone(p.Followers)
	c.Following = slices.Clone(p.Following)
	c.Normalize()
	return &c
}

func (p *Profile) IsFollowing(uid string) bool {
	return slices.Contains(p.Following, uid)
}

func (p *Profile) IsFollowedBy(uid string) bool {
	return slices.Contains(p.Followers, uid)
}
