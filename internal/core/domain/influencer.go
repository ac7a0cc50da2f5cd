package domain

import (
	"time"

	"github.com/google/uuid"
)

// Influencer is a creator the brand may contact. Platform and handle
// identify the account; the rest is profile data that can be refreshed.
type Influencer struct {
	ID             uuid.UUID
	Platform       string
	Handle         string
	DisplayName    string
	ProfileURL     string
	Email          string
	Bio            string
	Followers      *int64
	EngagementRate *float64
	NicheTags      []string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Name returns the display name, falling back to the handle.
func (i *Influencer) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Handle
}

// ProfileUpdate carries the refreshable attributes. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	DisplayName    *string
	ProfileURL     *string
	Email          *string
	Bio            *string
	Followers      *int64
	EngagementRate *float64
	NicheTags      []string
	Notes          *string
}

// Apply copies the set fields of u onto i.
func (u ProfileUpdate) Apply(i *Influencer) {
	if u.DisplayName != nil {
		i.DisplayName = *u.DisplayName
	}
	if u.ProfileURL != nil {
		i.ProfileURL = *u.ProfileURL
	}
	if u.Email != nil {
		i.Email = *u.Email
	}
	if u.Bio != nil {
		i.Bio = *u.Bio
	}
	if u.Followers != nil {
		i.Followers = u.Followers
	}
	if u.EngagementRate != nil {
		i.EngagementRate = u.EngagementRate
	}
	if u.NicheTags != nil {
		i.NicheTags = u.NicheTags
	}
	if u.Notes != nil {
		i.Notes = *u.Notes
	}
}
