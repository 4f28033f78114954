package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

func TestCreateTask(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	in := models.CreateTaskInput{Title: "Sandbags", Description: "Fill sandbags at the levee"}

	_, err := env.tasks.Create(ctx, volunteerActor, in)
	expectErr(t, err, ErrForbidden)

	want := env.clock.t.Add(time.Minute)
	task, err := env.tasks.Create(ctx, adminActor, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != models.TaskOpen || task.AssignedVolunteerID != nil {
		t.Fatalf("expected open unassigned task, got %+v", task)
	}
	if !task.CreatedDate.Equal(want) {
		t.Fatalf("expected created date %v, got %v", want, task.CreatedDate)
	}
	if !task.TaskDate.Equal(want.Add(24 * time.Hour)) {
		t.Fatalf("expected task date a day after creation, got %v", task.TaskDate)
	}
	if task.Priority != models.PriorityMedium {
		t.Fatalf("expected default priority Medium, got %s", task.Priority)
	}

	tooLong := 30.0
	in.EstimatedHours = &tooLong
	_, err = env.tasks.Create(ctx, adminActor, in)
	expectValidation(t, err, "estimated_hours")
}

func TestSignUp(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "Shelter intake", env.clock.t.Add(48*time.Hour))

	_, err := env.tasks.SignUp(ctx, regularActor, task.ID)
	expectErr(t, err, ErrForbidden)
	_, err = env.tasks.SignUp(ctx, donorActor, task.ID)
	expectErr(t, err, ErrForbidden)
	_, err = env.tasks.SignUp(ctx, volunteerActor, uuid.New())
	expectErr(t, err, ErrNotFound)

	got, err := env.tasks.SignUp(ctx, volunteerActor, task.ID)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if got.Status != models.TaskAssigned || !got.AssignedTo(volunteerActor.ID) {
		t.Fatalf("expected task assigned to %s, got %+v", volunteerActor.ID, got)
	}

	// a second volunteer sees an Assigned task and is turned away
	_, err = env.tasks.SignUp(ctx, otherVolunteer, task.ID)
	expectErr(t, err, ErrTaskUnavailable)
	// so is the same volunteer signing up twice
	_, err = env.tasks.SignUp(ctx, volunteerActor, task.ID)
	expectErr(t, err, ErrTaskUnavailable)

	stored, _ := env.tasks.Get(ctx, task.ID)
	if !stored.AssignedTo(volunteerActor.ID) || stored.Status != models.TaskAssigned {
		t.Fatalf("assignment changed after rejected sign-up: %+v", stored)
	}
}

func TestSignUpRequiresUnassigned(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "Generator watch", env.clock.t.Add(48*time.Hour))

	// Open but already assigned through an admin edit
	assignee := otherVolunteer.ID
	if _, err := env.tasks.Edit(ctx, adminActor, task.ID, models.EditTaskInput{
		Title:               task.Title,
		Description:         task.Description,
		TaskDate:            task.TaskDate,
		AssignedVolunteerID: &assignee,
		Status:              "Open",
		Version:             task.Version,
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	_, err := env.tasks.SignUp(ctx, volunteerActor, task.ID)
	expectErr(t, err, ErrTaskUnavailable)
}

func TestAdminCanSignUp(t *testing.T) {
	env := setupEnv(t)
	task := env.createTask(t, "Radio relay", env.clock.t.Add(48*time.Hour))
	got, err := env.tasks.SignUp(context.Background(), adminActor, task.ID)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !got.AssignedTo(adminActor.ID) {
		t.Fatalf("expected admin assignment, got %+v", got)
	}
}

// racingTaskStore runs race once just before the next UpdateTask.
type racingTaskStore struct {
	store.TaskStore
	race func()
}

func (r *racingTaskStore) UpdateTask(ctx context.Context, t *models.VolunteerTask) error {
	if r.race != nil {
		race := r.race
		r.race = nil
		race()
	}
	return r.TaskStore.UpdateTask(ctx, t)
}

func TestSignUpLostRace(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "Water run", env.clock.t.Add(48*time.Hour))

	racing := &racingTaskStore{TaskStore: env.store}
	racing.race = func() {
		if _, err := env.tasks.SignUp(ctx, otherVolunteer, task.ID); err != nil {
			t.Errorf("competing sign-up: %v", err)
		}
	}
	svc := NewTaskService(racing, env.activity, env.tasks.logger)

	_, err := svc.SignUp(ctx, volunteerActor, task.ID)
	expectErr(t, err, ErrTaskUnavailable)

	stored, _ := env.tasks.Get(ctx, task.ID)
	if !stored.AssignedTo(otherVolunteer.ID) {
		t.Fatalf("expected the winning sign-up to stand, got %+v", stored)
	}
}

func TestCompleteTask(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "Meal prep", env.clock.t.Add(48*time.Hour))
	if _, err := env.tasks.SignUp(ctx, volunteerActor, task.ID); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	_, err := env.tasks.Complete(ctx, otherVolunteer, task.ID)
	expectErr(t, err, ErrTaskNotAssignable)
	_, err = env.tasks.Complete(ctx, donorActor, task.ID)
	expectErr(t, err, ErrTaskNotAssignable)
	stored, _ := env.tasks.Get(ctx, task.ID)
	if stored.Status != models.TaskAssigned || stored.CompletionDate != nil {
		t.Fatalf("rejected completion changed the task: %+v", stored)
	}

	want := env.clock.t.Add(time.Minute)
	got, err := env.tasks.Complete(ctx, volunteerActor, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != models.TaskCompleted || got.CompletionDate == nil || !got.CompletionDate.Equal(want) {
		t.Fatalf("expected completed task stamped %v, got %+v", want, got)
	}

	_, err = env.tasks.Complete(ctx, adminActor, uuid.New())
	expectErr(t, err, ErrNotFound)
}

func TestCompleteHasNoStatusPrecondition(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// straight from Open, never assigned
	open := env.createTask(t, "Triage", env.clock.t.Add(48*time.Hour))
	got, err := env.tasks.Complete(ctx, adminActor, open.ID)
	if err != nil {
		t.Fatalf("complete open task: %v", err)
	}
	if got.Status != models.TaskCompleted || got.AssignedVolunteerID != nil {
		t.Fatalf("unexpected result %+v", got)
	}
	first := *got.CompletionDate

	// completing again restamps the date
	again, err := env.tasks.Complete(ctx, adminActor, open.ID)
	if err != nil {
		t.Fatalf("complete completed task: %v", err)
	}
	if again.Status != models.TaskCompleted || !again.CompletionDate.After(first) {
		t.Fatalf("expected a later completion date, got %+v", again)
	}

	// a volunteer cannot complete an unassigned task
	other := env.createTask(t, "Laundry", env.clock.t.Add(48*time.Hour))
	_, err = env.tasks.Complete(ctx, volunteerActor, other.ID)
	expectErr(t, err, ErrTaskNotAssignable)
}

func TestEditTask(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "Tarp install", env.clock.t.Add(48*time.Hour))
	if _, err := env.tasks.Complete(ctx, adminActor, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	current, _ := env.tasks.Get(ctx, task.ID)

	in := models.EditTaskInput{
		Title:       "Tarp install, block C",
		Description: task.Description,
		TaskDate:    task.TaskDate.Add(time.Hour),
		Status:      "Open",
		Priority:    "High",
		Version:     current.Version,
	}
	_, err := env.tasks.Edit(ctx, volunteerActor, task.ID, in)
	expectErr(t, err, ErrForbidden)

	// admin bypass: Completed straight back to Open
	got, err := env.tasks.Edit(ctx, adminActor, task.ID, in)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Status != models.TaskOpen || got.CompletionDate != nil || got.Priority != models.PriorityHigh {
		t.Fatalf("unexpected edit result %+v", got)
	}
	if !got.CreatedDate.Equal(task.CreatedDate) {
		t.Fatalf("created date changed: %v -> %v", task.CreatedDate, got.CreatedDate)
	}

	_, err = env.tasks.Edit(ctx, adminActor, task.ID, in)
	expectErr(t, err, ErrConflict)

	in.Status = "Paused"
	in.Version = 0
	_, err = env.tasks.Edit(ctx, adminActor, task.ID, in)
	expectValidation(t, err, "status")
}

func TestAvailableAndMine(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	later := env.createTask(t, "Later", env.clock.t.Add(72*time.Hour))
	sooner := env.createTask(t, "Sooner", env.clock.t.Add(24*time.Hour))
	taken := env.createTask(t, "Taken", env.clock.t.Add(48*time.Hour))
	if _, err := env.tasks.SignUp(ctx, volunteerActor, taken.ID); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	_, err := env.tasks.Available(ctx, donorActor)
	expectErr(t, err, ErrForbidden)

	avail, err := env.tasks.Available(ctx, otherVolunteer)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(avail) != 2 || avail[0].ID != sooner.ID || avail[1].ID != later.ID {
		t.Fatalf("unexpected available tasks %+v", avail)
	}

	mine, err := env.tasks.Mine(ctx, volunteerActor)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != taken.ID {
		t.Fatalf("unexpected my tasks %+v", mine)
	}
}

func TestDeleteAbsentIsSuccess(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	missing := uuid.New()

	if err := env.incidents.Delete(ctx, adminActor, missing); err != nil {
		t.Fatalf("incident delete: %v", err)
	}
	if err := env.donations.Delete(ctx, adminActor, missing); err != nil {
		t.Fatalf("donation delete: %v", err)
	}
	if err := env.tasks.Delete(ctx, adminActor, missing); err != nil {
		t.Fatalf("task delete: %v", err)
	}
	expectErr(t, env.tasks.Delete(ctx, volunteerActor, missing), ErrForbidden)
}
