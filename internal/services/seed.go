package services

import (
	"context"
	"fmt"
	"os"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedTask is one task entry in a seed file. DaysAhead is relative to the
// seeding time.
type SeedTask struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	DaysAhead      int      `yaml:"days_ahead"`
	Location       string   `yaml:"location"`
	RequiredSkills string   `yaml:"required_skills"`
	EstimatedHours *float64 `yaml:"estimated_hours"`
	Priority       string   `yaml:"priority"`
	Notes          string   `yaml:"notes"`
}

type seedFile struct {
	Tasks []SeedTask `yaml:"tasks"`
}

func hours(h float64) *float64 { return &h }

// DefaultSeedTasks are loaded into an empty task table on first start.
var DefaultSeedTasks = []SeedTask{
	{
		Title:          "Emergency Food Distribution",
		Description:    "Help distribute food packages to affected families at the community center",
		DaysAhead:      1,
		Location:       "Community Center, Main Street",
		RequiredSkills: "Physical stamina, customer service",
		EstimatedHours: hours(4),
		Priority:       "High",
	},
	{
		Title:          "Medical Aid Station Support",
		Description:    "Assist medical staff with basic first aid and patient registration",
		DaysAhead:      2,
		Location:       "Temporary Medical Station, Central Park",
		RequiredSkills: "First aid certification preferred",
		EstimatedHours: hours(6),
		Priority:       "High",
	},
	{
		Title:          "Cleanup and Debris Removal",
		Description:    "Help clear debris from residential areas affected by flooding",
		DaysAhead:      3,
		Location:       "Riverside District",
		RequiredSkills: "Physical fitness, ability to lift heavy objects",
		EstimatedHours: hours(8),
		Priority:       "Medium",
	},
	{
		Title:          "Children's Activity Coordinator",
		Description:    "Organize activities for children at the temporary shelter",
		DaysAhead:      4,
		Location:       "Emergency Shelter, School Gymnasium",
		RequiredSkills: "Experience with children, creativity",
		EstimatedHours: hours(5),
		Priority:       "Medium",
	},
	{
		Title:          "Supply Inventory Management",
		Description:    "Sort and catalog donated supplies at the warehouse",
		DaysAhead:      5,
		Location:       "Relief Warehouse, Industrial Park",
		RequiredSkills: "Organization skills, attention to detail",
		EstimatedHours: hours(3),
		Priority:       "Low",
	},
}

// LoadSeedFile reads task entries from a YAML file with a top-level tasks list
func LoadSeedFile(path string) ([]SeedTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Tasks, nil
}

// Seeder creates the bootstrap admin and sample tasks
type Seeder struct {
	auth   *AuthService
	tasks  *TaskService
	store  store.TaskStore
	logger *zap.SugaredLogger
}

// NewSeeder creates a seeder over the given services
func NewSeeder(auth *AuthService, tasks *TaskService, st store.TaskStore, logger *zap.SugaredLogger) *Seeder {
	return &Seeder{auth: auth, tasks: tasks, store: st, logger: logger}
}

// SeedAdmin ensures the bootstrap admin account exists and returns it as an actor
func (s *Seeder) SeedAdmin(ctx context.Context, email, password string) (models.Actor, error) {
	u, err := s.auth.EnsureAdmin(ctx, email, password)
	if err != nil {
		return models.Actor{}, fmt.Errorf("seed admin: %w", err)
	}
	return models.Actor{ID: u.ID, Roles: u.Roles}, nil
}

// SeedTasks creates entries as tasks on behalf of admin. With onlyIfEmpty
// set nothing is created when any task already exists.
func (s *Seeder) SeedTasks(ctx context.Context, admin models.Actor, entries []SeedTask, onlyIfEmpty bool) (int, error) {
	if onlyIfEmpty {
		n, err := s.store.CountTasks(ctx, store.TaskFilter{})
		if err != nil {
			return 0, storeErr("count tasks", err)
		}
		if n > 0 {
			return 0, nil
		}
	}

	now := s.tasks.Now().UTC()
	created := 0
	for _, e := range entries {
		date := now.AddDate(0, 0, e.DaysAhead)
		_, err := s.tasks.Create(ctx, admin, models.CreateTaskInput{
			Title:          e.Title,
			Description:    e.Description,
			TaskDate:       &date,
			Location:       e.Location,
			RequiredSkills: e.RequiredSkills,
			EstimatedHours: e.EstimatedHours,
			Priority:       e.Priority,
			Notes:          e.Notes,
		})
		if err != nil {
			return created, fmt.Errorf("seed task %q: %w", e.Title, err)
		}
		created++
	}
	s.logger.Infow("Seeded volunteer tasks", "count", created)
	return created, nil
}
