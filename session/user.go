package session

import (
	"github.com/jrsteele09/go-seller-client/identity"
	"github.com/jrsteele09/go-seller-client/internal/utils"
	"github.com/jrsteele09/go-seller-client/sellermodel"
)

// SellerStatus decides which part of the app a signed-in user may use.
type SellerStatus string

const (
	StatusNotSeller SellerStatus = "not_seller"
	StatusPending   SellerStatus = "pending"
	StatusApproved  SellerStatus = "approved"
	StatusRejected  SellerStatus = "rejected"
)

// User is the authenticated user: the identity principal merged with the
// backend profile.
type User struct {
	UID         string // principal ID, never taken from the profile
	PhoneNumber string // principal phone, never taken from the profile

	ProfileID     sellermodel.ID
	Email         string
	Phone         string
	FirstName     string
	LastName      string
	DisplayName   string
	Role          sellermodel.Role
	BusinessName  string
	IsOpen        bool
	SellerProfile *sellermodel.SellerProfile

	// ProfileLoaded is false when the backend profile could not be fetched
	// and the user carries principal fields only.
	ProfileLoaded bool
}

// Merge builds the authenticated user. Identity fields come from the
// principal; everything else comes from the profile when it has a value.
func Merge(p *identity.Principal, profile *sellermodel.Profile) *User {
	if p == nil {
		return nil
	}
	u := &User{
		UID:         p.ID,
		PhoneNumber: p.Phone,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}
	if profile == nil {
		return u
	}

	u.ProfileLoaded = true
	u.ProfileID = profile.ID
	u.Email = utils.FirstNonEmpty(profile.Email, p.Email)
	u.Phone = profile.Phone
	u.FirstName = profile.FirstName
	u.LastName = profile.LastName
	u.Role = profile.Role
	u.BusinessName = profile.BusinessName
	if profile.SellerProfile != nil {
		sp := *profile.SellerProfile
		u.SellerProfile = &sp
		u.BusinessName = utils.FirstNonEmpty(profile.BusinessName, sp.BusinessName)
		u.IsOpen = sp.IsOpen
	}
	if profile.IsOpen != nil {
		u.IsOpen = *profile.IsOpen
	}
	if name := joinName(profile.FirstName, profile.LastName); name != "" {
		u.DisplayName = name
	}
	return u
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// SellerStatus is approved only for a seller whose profile was approved. A
// user without a seller profile has not applied yet.
func (u *User) SellerStatus() SellerStatus {
	if u == nil || u.SellerProfile == nil {
		return StatusNotSeller
	}
	switch u.SellerProfile.ApprovalStatus {
	case sellermodel.ApprovalApproved:
		if u.Role == sellermodel.RoleSeller {
			return StatusApproved
		}
		return StatusPending
	case sellermodel.ApprovalRejected:
		return StatusRejected
	}
	return StatusPending
}

// Greeting is the name shown on the dashboard header.
func (u *User) Greeting() string {
	if u == nil {
		return ""
	}
	return utils.FirstNonEmpty(u.BusinessName, u.FirstName, u.DisplayName, "Elite Seller")
}
