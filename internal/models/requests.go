package models

import "time"

// ReportIncidentInput is the request body for reporting an incident
type ReportIncidentInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Location    string `json:"location" validate:"required,max=500"`
	Priority    string `json:"priority"`
}

// EditIncidentInput is the admin edit body. Reporter and report date are not editable.
type EditIncidentInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Location    string `json:"location" validate:"required,max=500"`
	Status      string `json:"status" validate:"required"`
	Priority    string `json:"priority"`
	Version     int    `json:"version"`
}

// StatusInput is the request body for status changes
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// RecordDonationInput is the request body for recording a donation
type RecordDonationInput struct {
	DonorName       string `json:"donor_name" validate:"required,max=100"`
	ResourceType    string `json:"resource_type" validate:"required,max=100"`
	Quantity        int    `json:"quantity" validate:"min=1"`
	DonorEmail      string `json:"donor_email,omitempty" validate:"omitempty,email"`
	DonorPhone      string `json:"donor_phone,omitempty" validate:"omitempty,phone"`
	DeliveryAddress string `json:"delivery_address,omitempty" validate:"max=500"`
	Notes           string `json:"notes,omitempty" validate:"max=1000"`
}

// EditDonationInput replaces the editable donation fields. Status and owner
// are changed through their own operations.
type EditDonationInput struct {
	RecordDonationInput
	Version int `json:"version"`
}

// CreateTaskInput is the request body for creating a volunteer task.
// A nil TaskDate defaults to 24 hours after creation.
type CreateTaskInput struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description" validate:"required,max=1000"`
	TaskDate       *time.Time `json:"task_date,omitempty"`
	Location       string     `json:"location,omitempty" validate:"max=500"`
	RequiredSkills string     `json:"required_skills,omitempty" validate:"max=500"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" validate:"omitempty,min=0.5,max=24"`
	Priority       string     `json:"priority"`
	Notes          string     `json:"notes,omitempty" validate:"max=1000"`
}

// EditTaskInput is the admin edit body. It may set status and assignee directly.
type EditTaskInput struct {
	Title               string     `json:"title" validate:"required,max=200"`
	Description         string     `json:"description" validate:"required,max=1000"`
	TaskDate            time.Time  `json:"task_date" validate:"required"`
	AssignedVolunteerID *string    `json:"assigned_volunteer_id,omitempty"`
	Status              string     `json:"status" validate:"required"`
	Location            string     `json:"location,omitempty" validate:"max=500"`
	RequiredSkills      string     `json:"required_skills,omitempty" validate:"max=500"`
	EstimatedHours      *float64   `json:"estimated_hours,omitempty" validate:"omitempty,min=0.5,max=24"`
	Priority            string     `json:"priority"`
	CompletionDate      *time.Time `json:"completion_date,omitempty"`
	Notes               string     `json:"notes,omitempty" validate:"max=1000"`
	Version             int        `json:"version"`
}

// RegisterInput is the request body for self-registration
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	FullName string `json:"full_name,omitempty" validate:"max=100"`
	Role     string `json:"role"`
}

// LoginInput is the request body for login
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GrantRoleInput is the request body for admin role grants
type GrantRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// TokenResponse is returned on successful login or registration
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
	Role      Role      `json:"role"`
}
