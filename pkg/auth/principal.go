package auth

import (
	"github.com/google/uuid"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// Principal is the authenticated actor handed into services. It is an
// explicit tagged value; services never probe the request for identity.
type Principal struct {
	Role      enums.UserRole
	UserID    uuid.UUID
	CompanyID *uuid.UUID
}

// Guest is the zero principal used for unauthenticated booking flows.
var Guest = Principal{}

// IsGuest reports whether the principal carries no authenticated identity.
func (p Principal) IsGuest() bool {
	return p.UserID == uuid.Nil
}

// IsAdmin reports whether the principal is a marketplace administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.UserRoleAdmin
}

// IsStaff reports whether the principal is company staff with a bound company.
func (p Principal) IsStaff() bool {
	return p.Role == enums.UserRoleStaff && p.CompanyID != nil
}

// IsCustomer reports whether the principal is an authenticated customer.
func (p Principal) IsCustomer() bool {
	return p.Role == enums.UserRoleCustomer && p.UserID != uuid.Nil
}

// FromClaims converts parsed JWT claims into a Principal.
func FromClaims(claims *AccessTokenClaims) Principal {
	if claims == nil {
		return Guest
	}
	return Principal{
		Role:      claims.Role,
		UserID:    claims.UserID,
		CompanyID: claims.CompanyID,
	}
}
