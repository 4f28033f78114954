// Package models defines the data structures used across the application.
// Entities map to the relational schema shared by the postgres and sqlite stores.
package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentReport is a disaster incident submitted by any authenticated user.
// ReportedByUserID and DateReported never change after creation.
type IncidentReport struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Title            string         `json:"title" db:"title"`
	Description      string         `json:"description" db:"description"`
	Location         string         `json:"location" db:"location"`
	DateReported     time.Time      `json:"date_reported" db:"date_reported"`
	ReportedByUserID string         `json:"reported_by_user_id" db:"reported_by_user_id"`
	Status           IncidentStatus `json:"status" db:"status"`
	Priority         Priority       `json:"priority" db:"priority"`
	Version          int            `json:"version" db:"version"`
}

// Donation is a pledge of resources. DonorUserID ties the record to its creator
// and drives ownership checks on edit.
type Donation struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	DonorName       string         `json:"donor_name" db:"donor_name"`
	ResourceType    string         `json:"resource_type" db:"resource_type"`
	Quantity        int            `json:"quantity" db:"quantity"`
	DateDonated     time.Time      `json:"date_donated" db:"date_donated"`
	Status          DonationStatus `json:"status" db:"status"`
	DonorEmail      string         `json:"donor_email,omitempty" db:"donor_email"`
	DonorPhone      string         `json:"donor_phone,omitempty" db:"donor_phone"`
	DeliveryAddress string         `json:"delivery_address,omitempty" db:"delivery_address"`
	Notes           string         `json:"notes,omitempty" db:"notes"`
	DonorUserID     *string        `json:"donor_user_id,omitempty" db:"donor_user_id"`
	Version         int            `json:"version" db:"version"`
}

// OwnedBy reports whether the donation was recorded by actorID.
func (d *Donation) OwnedBy(actorID string) bool {
	return d.DonorUserID != nil && actorID != "" && *d.DonorUserID == actorID
}

// VolunteerTask is a unit of relief work volunteers sign up for.
type VolunteerTask struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Title               string     `json:"title" db:"title"`
	Description         string     `json:"description" db:"description"`
	TaskDate            time.Time  `json:"task_date" db:"task_date"`
	AssignedVolunteerID *string    `json:"assigned_volunteer_id,omitempty" db:"assigned_volunteer_id"`
	Status              TaskStatus `json:"status" db:"status"`
	Location            string     `json:"location,omitempty" db:"location"`
	RequiredSkills      string     `json:"required_skills,omitempty" db:"required_skills"`
	EstimatedHours      *float64   `json:"estimated_hours,omitempty" db:"estimated_hours"`
	Priority            Priority   `json:"priority" db:"priority"`
	CreatedDate         time.Time  `json:"created_date" db:"created_date"`
	CompletionDate      *time.Time `json:"completion_date,omitempty" db:"completion_date"`
	Notes               string     `json:"notes,omitempty" db:"notes"`
	Version             int        `json:"version" db:"version"`
}

// AssignedTo reports whether actorID is the task's assignee.
func (t *VolunteerTask) AssignedTo(actorID string) bool {
	return t.AssignedVolunteerID != nil && actorID != "" && *t.AssignedVolunteerID == actorID
}

// User is an account known to the identity store.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name,omitempty" db:"full_name"`
	Roles        []Role    `json:"roles" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ActivityLog is an append-only record of a workflow write.
type ActivityLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EntityKind string    `json:"entity_kind" db:"entity_kind"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Action     string    `json:"action" db:"action"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	Detail     string    `json:"detail,omitempty" db:"detail"`
	EntryHash  string    `json:"entry_hash" db:"entry_hash"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Entity kinds recorded in the activity log.
const (
	EntityIncident = "incident"
	EntityDonation = "donation"
	EntityTask     = "task"
	EntityUser     = "user"
)

// Dashboard is the per-actor summary view.
type Dashboard struct {
	Role               Role             `json:"role"`
	TotalIncidents     int64            `json:"total_incidents"`
	PendingDonations   int64            `json:"pending_donations"`
	OpenVolunteerTasks int64            `json:"open_volunteer_tasks"`
	RecentIncidents    []IncidentReport `json:"recent_incidents"`
	RecentDonations    []Donation       `json:"recent_donations"`
	UpcomingTasks      []VolunteerTask  `json:"upcoming_tasks"`
}

// MerkleProof contains the Merkle proof for a single activity entry
type MerkleProof struct {
	LeafHash string      `json:"leaf_hash"`
	Root     string      `json:"root"`
	Proof    []ProofStep `json:"proof"`
	Index    int         `json:"index"`
	Verified bool        `json:"verified"`
}

// ProofStep is a single step in a Merkle proof path
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" | "right"
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Database   string `json:"database"`
	MerkleRoot string `json:"merkle_root,omitempty"`
}
