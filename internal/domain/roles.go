package domain

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleStaff     = "staff"
	RoleJoueur    = "joueur"
)

// UsedInviteCode value recorded for the first account created against an
// empty store, which is granted admin without an invite.
const BootstrapInviteCode = "First Admin"

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleStaff, RoleJoueur:
		return true
	}
	return false
}

// Elevated roles may manage accounts.
func Elevated(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// InviteCapable roles may create and revoke invites.
func InviteCapable(role string) bool {
	return Elevated(role) || role == RoleStaff
}

// CanManage reports whether actor may delete or re-role target. Moderators
// cannot touch admins or other moderators.
func CanManage(actorRole, targetRole string) bool {
	switch actorRole {
	case RoleAdmin:
		return true
	case RoleModerator:
		return targetRole != RoleAdmin && targetRole != RoleModerator
	}
	return false
}

// CanGrant reports whether actor may assign newRole to someone else.
// Moderators cannot promote to admin; they may create moderator peers.
func CanGrant(actorRole, newRole string) bool {
	switch actorRole {
	case RoleAdmin:
		return true
	case RoleModerator:
		return newRole != RoleAdmin
	}
	return false
}

// ClampInviteRole applies the invite-role policy: staff always invite at
// the lowest privilege, an unset role defaults to it.
func ClampInviteRole(actorRole, requested string) string {
	if actorRole == RoleStaff || requested == "" {
		return RoleJoueur
	}
	return requested
}
