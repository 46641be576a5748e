package model

import "github.com/google/uuid"

// Identity is the user record the identity gateway hands back, and also the
// request-scoped principal the edge middleware attaches after verifying an
// access token.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Roles  []string  `json:"roles"`
	Active bool      `json:"active"`
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
