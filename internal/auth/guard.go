package auth

import (
	"errors"

	"github.com/acquisitions/apiserver/types"
)

// ErrForbidden marks a valid identity without sufficient privilege.
var ErrForbidden = errors.New("forbidden")

// PolicyError is a denied authorization decision. Reason is safe to return
// to the caller.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return "forbidden: " + e.Reason
}

func (e *PolicyError) Unwrap() error {
	return ErrForbidden
}

func deny(reason string) error {
	return &PolicyError{Reason: reason}
}

func IsOwner(identity types.Identity, targetID int) bool {
	return identity.ID == targetID
}

func IsAdmin(identity types.Identity) bool {
	return identity.Role == types.RoleAdmin
}

// HasRole reports whether the identity holds one of roles.
func HasRole(identity types.Identity, roles ...types.Role) bool {
	for _, role := range roles {
		if identity.Role == role {
			return true
		}
	}
	return false
}

func CanViewUser(identity types.Identity, targetID int) error {
	if !IsOwner(identity, targetID) && !IsAdmin(identity) {
		return deny("You can only view your own information")
	}
	return nil
}

// CanUpdateUser checks ownership first, then gates role changes to admins.
// A non-admin may not change any role, including their own.
func CanUpdateUser(identity types.Identity, targetID int, update types.UserUpdate) error {
	if !IsOwner(identity, targetID) && !IsAdmin(identity) {
		return deny("You can only update your own information")
	}
	if update.Role != nil && !IsAdmin(identity) {
		return deny("Only administrators can change user roles")
	}
	return nil
}

func CanDeleteUser(identity types.Identity, targetID int) error {
	if !IsOwner(identity, targetID) && !IsAdmin(identity) {
		return deny("You can only delete your own account")
	}
	return nil
}

func CanManageAvatar(identity types.Identity, targetID int) error {
	if !IsOwner(identity, targetID) && !IsAdmin(identity) {
		return deny("You can only manage your own avatar")
	}
	return nil
}
