package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/reliefhub/relief-server/internal/auth"
	"github.com/reliefhub/relief-server/internal/database"
	"github.com/reliefhub/relief-server/internal/middleware"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"github.com/reliefhub/relief-server/internal/store/sqlite"
	"go.uber.org/zap"
)

const testSecret = "handler-secret"

type apiFixture struct {
	router http.Handler
	worker *services.IntegrityWorker
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	conn, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	st := sqlite.New(conn)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(st.Close)

	logger := zap.NewNop().Sugar()
	activity := services.NewActivityLogService(st, logger)
	merkle := services.NewMerkleService(logger)
	set := Set{
		Health:    NewHealthHandler(st, merkle, logger),
		Auth:      NewAuthHandler(services.NewAuthService(st, activity, testSecret, time.Hour, logger), logger),
		Incidents: NewIncidentHandler(services.NewIncidentService(st, activity, logger), logger),
		Donations: NewDonationHandler(services.NewDonationService(st, activity, logger), logger),
		Tasks:     NewTaskHandler(services.NewTaskService(st, activity, logger), logger),
		Dashboard: NewDashboardHandler(services.NewDashboardService(st, logger), logger),
		Activity:  NewActivityHandler(activity, logger),
		Integrity: NewIntegrityHandler(merkle, logger),
	}
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		Mount(r, set, middleware.RequireAuth(testSecret))
	})
	return &apiFixture{router: r, worker: services.NewIntegrityWorker(merkle, activity, logger)}
}

func bearer(t *testing.T, id string, roles ...models.Role) string {
	t.Helper()
	token, _, err := auth.Issue(testSecret, &models.User{ID: id, Roles: roles}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestTaskWorkflowOverHTTP(t *testing.T) {
	f := setupAPI(t)
	admin := bearer(t, "admin-1", models.RoleAdmin)
	vol := bearer(t, "vol-1", models.RoleVolunteer)
	other := bearer(t, "vol-2", models.RoleVolunteer)

	create := map[string]any{"title": "Sandbags", "description": "Levee crew", "priority": "High"}
	if code := f.do(t, http.MethodPost, "/api/v1/tasks", vol, create, nil); code != http.StatusForbidden {
		t.Fatalf("volunteer create: expected 403, got %d", code)
	}
	var task models.VolunteerTask
	if code := f.do(t, http.MethodPost, "/api/v1/tasks", admin, create, &task); code != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d", code)
	}

	path := "/api/v1/tasks/" + task.ID.String()
	if code := f.do(t, http.MethodPost, path+"/signup", vol, nil, &task); code != http.StatusOK {
		t.Fatalf("sign up: expected 200, got %d", code)
	}
	var apiErr errorResponse
	if code := f.do(t, http.MethodPost, path+"/signup", other, nil, &apiErr); code != http.StatusConflict || apiErr.Code != "task_unavailable" {
		t.Fatalf("second sign up: expected 409 task_unavailable, got %d %+v", code, apiErr)
	}
	if code := f.do(t, http.MethodPost, path+"/complete", other, nil, &apiErr); code != http.StatusForbidden || apiErr.Code != "task_not_assignable" {
		t.Fatalf("foreign complete: expected 403 task_not_assignable, got %d %+v", code, apiErr)
	}
	if code := f.do(t, http.MethodPost, path+"/complete", vol, nil, &task); code != http.StatusOK || task.Status != models.TaskCompleted {
		t.Fatalf("complete: got %d %+v", code, task)
	}

	var dash models.Dashboard
	if code := f.do(t, http.MethodGet, "/api/v1/dashboard", vol, nil, &dash); code != http.StatusOK {
		t.Fatalf("dashboard: %d", code)
	}
	if dash.Role != models.RoleVolunteer || len(dash.UpcomingTasks) != 0 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	if code := f.do(t, http.MethodDelete, path, admin, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code := f.do(t, http.MethodDelete, path, admin, nil, nil); code != http.StatusNoContent {
		t.Fatalf("repeat delete: %d", code)
	}
	if code := f.do(t, http.MethodGet, path, vol, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", code)
	}
}

func TestDonationEditOverHTTP(t *testing.T) {
	f := setupAPI(t)
	donor := bearer(t, "donor-1", models.RoleDonor)
	stranger := bearer(t, "donor-2", models.RoleDonor)
	admin := bearer(t, "admin-1", models.RoleAdmin)

	var d models.Donation
	body := map[string]any{"donor_name": "Ana", "resource_type": "Blankets", "quantity": 5}
	if code := f.do(t, http.MethodPost, "/api/v1/donations", donor, body, &d); code != http.StatusCreated {
		t.Fatalf("record: %d", code)
	}
	path := "/api/v1/donations/" + d.ID.String()

	edit := map[string]any{"donor_name": "Ana", "resource_type": "Blankets", "quantity": 7, "version": d.Version}
	if code := f.do(t, http.MethodPut, path, stranger, edit, nil); code != http.StatusForbidden {
		t.Fatalf("stranger edit: expected 403, got %d", code)
	}
	if code := f.do(t, http.MethodPut, path, donor, edit, &d); code != http.StatusOK || d.Quantity != 7 {
		t.Fatalf("owner edit: got %d %+v", code, d)
	}
	if code := f.do(t, http.MethodPut, path, admin, edit, nil); code != http.StatusConflict {
		t.Fatalf("stale edit: expected 409, got %d", code)
	}

	if code := f.do(t, http.MethodPut, path+"/status", donor, map[string]string{"status": "Approved"}, nil); code != http.StatusForbidden {
		t.Fatalf("donor status change: expected 403, got %d", code)
	}
	if code := f.do(t, http.MethodPut, path+"/status", admin, map[string]string{"status": "Approved"}, nil); code != http.StatusOK {
		t.Fatalf("admin status change: %d", code)
	}
	var mine []models.Donation
	if code := f.do(t, http.MethodGet, "/api/v1/donations/mine", donor, nil, &mine); code != http.StatusOK {
		t.Fatalf("mine: %d", code)
	}
	if len(mine) != 1 || mine[0].Status != models.DonationApproved {
		t.Fatalf("unexpected my donations %+v", mine)
	}
}

func TestValidationAndAuthErrors(t *testing.T) {
	f := setupAPI(t)
	user := bearer(t, "user-1", models.RoleRegularUser)

	if code := f.do(t, http.MethodGet, "/api/v1/incidents", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401, got %d", code)
	}
	var apiErr errorResponse
	code := f.do(t, http.MethodPost, "/api/v1/incidents", user, map[string]string{"title": "", "description": "d", "location": "l"}, &apiErr)
	if code != http.StatusBadRequest || apiErr.Code != "validation_failed" || len(apiErr.Fields) == 0 || apiErr.Fields[0].Field != "title" {
		t.Fatalf("expected title validation error, got %d %+v", code, apiErr)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/incidents/not-a-uuid", user, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", code)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/activity/recent", user, nil, nil); code != http.StatusForbidden {
		t.Fatalf("activity as user: expected 403, got %d", code)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/dashboard/admin", user, nil, nil); code != http.StatusForbidden {
		t.Fatalf("admin dashboard as user: expected 403, got %d", code)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	f := setupAPI(t)
	var reg models.TokenResponse
	body := map[string]string{"email": "vol@example.org", "password": "Relief1", "role": "Volunteer"}
	if code := f.do(t, http.MethodPost, "/api/v1/auth/register", "", body, &reg); code != http.StatusCreated {
		t.Fatalf("register: %d", code)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/auth/register", "", body, nil); code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", code)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "vol@example.org", "password": "nope"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", code)
	}
	var login models.TokenResponse
	if code := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "vol@example.org", "password": "Relief1"}, &login); code != http.StatusOK {
		t.Fatalf("login: %d", code)
	}
	var me meResponse
	if code := f.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil, &me); code != http.StatusOK {
		t.Fatalf("me: %d", code)
	}
	if me.ID != reg.User.ID || me.EffectiveRole != models.RoleVolunteer {
		t.Fatalf("unexpected me %+v", me)
	}

	admin := bearer(t, "admin-1", models.RoleAdmin)
	var granted models.User
	if code := f.do(t, http.MethodPost, "/api/v1/admin/users/"+me.ID+"/roles", admin, map[string]string{"role": "Donor"}, &granted); code != http.StatusOK {
		t.Fatalf("grant: %d", code)
	}
	if len(granted.Roles) != 2 {
		t.Fatalf("expected two roles, got %v", granted.Roles)
	}
}

func TestIntegrityOverHTTP(t *testing.T) {
	f := setupAPI(t)
	user := bearer(t, "user-1", models.RoleRegularUser)
	for i := 0; i < 3; i++ {
		body := map[string]string{"title": fmt.Sprintf("incident %d", i), "description": "d", "location": "l"}
		if code := f.do(t, http.MethodPost, "/api/v1/incidents", user, body, nil); code != http.StatusCreated {
			t.Fatalf("report: %d", code)
		}
	}
	if err := f.worker.RebuildNow(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	var snap services.IntegritySnapshot
	if code := f.do(t, http.MethodGet, "/api/v1/integrity/root", "", nil, &snap); code != http.StatusOK || snap.Leaves != 3 {
		t.Fatalf("root: %d %+v", code, snap)
	}
	var proof models.MerkleProof
	if code := f.do(t, http.MethodGet, "/api/v1/integrity/proof/1", "", nil, &proof); code != http.StatusOK || !proof.Verified {
		t.Fatalf("proof: %d %+v", code, proof)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/integrity/proof/9", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("out of range proof: expected 404, got %d", code)
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	req := verifyRequest{LeafHash: proof.LeafHash, Proof: proof.Proof}
	if code := f.do(t, http.MethodPost, "/api/v1/integrity/verify", "", req, &result); code != http.StatusOK || !result.Valid {
		t.Fatalf("verify: %d %+v", code, result)
	}
	req.LeafHash = "deadbeef"
	if f.do(t, http.MethodPost, "/api/v1/integrity/verify", "", req, &result); result.Valid {
		t.Fatalf("tampered leaf verified")
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	logger := zap.NewNop().Sugar()
	h := NewHealthHandler(downPinger{}, services.NewMerkleService(logger), logger)

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness with db down: expected 503, got %d", rec.Code)
	}
}
