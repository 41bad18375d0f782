package sellermodel

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// SellerProfile is the seller record attached to a user once they have applied.
type SellerProfile struct {
	ID              ID             `json:"id,omitempty"`
	BusinessName    string         `json:"businessName,omitempty"`
	Logo            string         `json:"logo,omitempty"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	IsOpen          bool           `json:"isOpen,omitempty"`
}

// Profile is the backend's view of the signed-in user (GET /api/users/me).
type Profile struct {
	ID            ID             `json:"id,omitempty"`
	FirebaseUID   string         `json:"firebaseUid,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	FirstName     string         `json:"firstName,omitempty"`
	LastName      string         `json:"lastName,omitempty"`
	Role          Role           `json:"role,omitempty"`
	BusinessName  string         `json:"businessName,omitempty"`
	IsOpen        *bool          `json:"isOpen,omitempty"`
	SellerProfile *SellerProfile `json:"sellerProfile,omitempty"`
}

// DecodeProfile accepts both shapes the backend has served for /api/users/me:
// {"user": {...}} and the bare user object. It returns nil, nil for an empty
// or null body.
func DecodeProfile(raw []byte) (*Profile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var envelope struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	body := raw
	if len(envelope.User) > 0 && string(envelope.User) != "null" {
		body = envelope.User
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}
