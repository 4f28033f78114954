// Package access decides which actor may invoke which workflow operation.
//
// Roles in the identity store overlap, so the effective role is the first
// match in models.RolePriority. Ownership of a donation is checked
// independently of role. Admin passes every check; that bypass is
// intentional and lets an administrator repair inconsistent state.
package access

import "github.com/reliefhub/relief-server/internal/models"

// EffectiveRole returns the highest-priority role held, or RegularUser.
func EffectiveRole(roles []models.Role) models.Role {
	for _, want := range models.RolePriority {
		for _, have := range roles {
			if have == want {
				return want
			}
		}
	}
	return models.RoleRegularUser
}

// IsAdmin reports whether the actor holds the Admin role.
func IsAdmin(a models.Actor) bool {
	return a.HasRole(models.RoleAdmin)
}

// CanReport allows any authenticated actor to report incidents and record donations.
func CanReport(a models.Actor) bool {
	return a.ID != ""
}

// CanManageIncidents covers incident status changes, edits and deletes.
func CanManageIncidents(a models.Actor) bool {
	return IsAdmin(a)
}

// CanEditDonation allows the Admin or the donation's owner.
func CanEditDonation(a models.Actor, d *models.Donation) bool {
	return IsAdmin(a) || d.OwnedBy(a.ID)
}

// CanManageDonations covers donation status changes and deletes.
func CanManageDonations(a models.Actor) bool {
	return IsAdmin(a)
}

// CanManageTasks covers task creation, edits and deletes.
func CanManageTasks(a models.Actor) bool {
	return IsAdmin(a)
}

// CanVolunteer allows Volunteers and Admins to sign up and browse their tasks.
func CanVolunteer(a models.Actor) bool {
	return a.HasRole(models.RoleVolunteer) || IsAdmin(a)
}

// CanCompleteTask allows the task's assignee or an Admin.
func CanCompleteTask(a models.Actor, t *models.VolunteerTask) bool {
	return IsAdmin(a) || t.AssignedTo(a.ID)
}

// CanViewActivity limits the audit trail to Admins.
func CanViewActivity(a models.Actor) bool {
	return IsAdmin(a)
}
