package models

import (
	"fmt"
	"strings"
)

// IncidentStatus is the lifecycle state of an incident report.
type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "Open"
	IncidentInProgress IncidentStatus = "InProgress"
	IncidentResolved   IncidentStatus = "Resolved"
	IncidentClosed     IncidentStatus = "Closed"
)

var incidentStatuses = []IncidentStatus{IncidentOpen, IncidentInProgress, IncidentResolved, IncidentClosed}

// ParseIncidentStatus accepts a status name case-insensitively.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	for _, v := range incidentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown incident status %q", s)
}

// DonationStatus is the review state of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "Pending"
	DonationApproved  DonationStatus = "Approved"
	DonationRejected  DonationStatus = "Rejected"
	DonationFulfilled DonationStatus = "Fulfilled"
)

var donationStatuses = []DonationStatus{DonationPending, DonationApproved, DonationRejected, DonationFulfilled}

// ParseDonationStatus accepts a status name case-insensitively.
func ParseDonationStatus(s string) (DonationStatus, error) {
	for _, v := range donationStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown donation status %q", s)
}

// TaskStatus is the assignment state of a volunteer task.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "Open"
	TaskAssigned  TaskStatus = "Assigned"
	TaskCompleted TaskStatus = "Completed"
)

var taskStatuses = []TaskStatus{TaskOpen, TaskAssigned, TaskCompleted}

// ParseTaskStatus accepts a status name case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, v := range taskStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Priority is shared by incidents and tasks.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority accepts a priority name case-insensitively. Empty input
// yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityMedium, nil
	}
	for _, v := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Role is an identity-store role. A user may hold several.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleVolunteer   Role = "Volunteer"
	RoleDonor       Role = "Donor"
	RoleRegularUser Role = "RegularUser"
)

// RolePriority lists roles from most to least privileged.
var RolePriority = []Role{RoleAdmin, RoleVolunteer, RoleDonor, RoleRegularUser}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	for _, v := range RolePriority {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// HasRole reports whether the actor holds r.
func (a Actor) HasRole(r Role) bool {
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}
