package model

import "github.com/golang-jwt/jwt/v5"

const (
	RoleCandidate = "candidate"
	RoleReviewer  = "reviewer"
)

// Identity is the caller of an operation. The zero value is a guest.
type Identity struct {
	UserID string
	Role   string
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{}
}

func (i Identity) IsGuest() bool {
	return i.UserID == ""
}

func (i Identity) IsReviewer() bool {
	return !i.IsGuest() && i.Role == RoleReviewer
}

// UserClaims are JWT claims issued by the account provider
type UserClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into a caller identity.
func (c *UserClaims) Identity() Identity {
	role := c.Role
	if role == "" {
		role = RoleCandidate
	}
	return Identity{UserID: c.UserID, Role: role}
}
