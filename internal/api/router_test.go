package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
	"github.com/99minutos/task-manager/internal/core/service"
	"github.com/99minutos/task-manager/internal/infrastructure/http/handlers"
	"github.com/99minutos/task-manager/internal/infrastructure/security"
	"github.com/99minutos/task-manager/internal/infrastructure/token"
)

// --- in-memory stores ---

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	seq  int
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

type memTasks struct {
	mu    sync.Mutex
	users *memUsers
	byID  map[string]*domain.Task
	seq   int
}

func (m *memTasks) withOwner(t *domain.Task) *domain.Task {
	cp := *t
	if u, err := m.users.FindByID(context.Background(), t.OwnerID); err == nil {
		cp.Owner = &domain.TaskOwner{ID: u.ID, Email: u.Email, Role: u.Role}
	}
	return &cp
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t.ID = fmt.Sprintf("task-%03d", m.seq)
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTasks) FindByID(_ context.Context, id string, withOwner bool) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if withOwner {
		return m.withOwner(t), nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) Update(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTasks) List(_ context.Context, f ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Task
	for _, t := range m.byID {
		if f.OwnerID != "" && t.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if f.Skip >= len(all) {
		return []*domain.Task{}, total, nil
	}
	end := f.Skip + f.Limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*domain.Task, 0, end-f.Skip)
	for _, t := range all[f.Skip:end] {
		out = append(out, m.withOwner(t))
	}
	return out, total, nil
}

type memActivity struct {
	mu      sync.Mutex
	records []*domain.TaskActivity
}

func (m *memActivity) Publish(a domain.TaskActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, &a)
}

func (m *memActivity) ListByTask(_ context.Context, taskID string, _ int) ([]*domain.TaskActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TaskActivity
	for _, r := range m.records {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- harness ---

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := &memUsers{byID: map[string]*domain.User{}}
	tasks := &memTasks{users: users, byID: map[string]*domain.Task{}}
	activity := &memActivity{}
	issuer := token.NewIssuer(token.Config{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})

	log := zerolog.Nop()
	authSvc := service.NewAuthService(users, security.NewBcryptHasher(bcrypt.MinCost), issuer, log)
	taskSvc := service.NewTaskService(tasks, activity, log)

	e := NewRouter(Deps{
		AuthService: authSvc,
		TaskService: taskSvc,
		Tokens:      issuer,
		Activity:    activity,
		Health:      handlers.NewHealthHandler(nil),
		Logger:      log,
		Registry:    prometheus.NewRegistry(),
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, accessToken, body string) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accessToken != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

// signup registers and logs in, returning the token pair.
func (s *testServer) signup(email string) (access, refresh string) {
	s.t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"secret1"}`, email)
	if rec, _ := s.do(http.MethodPost, "/auth/register", "", body); rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	rec, out := s.do(http.MethodPost, "/auth/login", "", body)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	return out["access_token"].(string), out["refresh_token"].(string)
}

func (s *testServer) createTask(access, title string) string {
	s.t.Helper()
	rec, out := s.do(http.MethodPost, "/v1/tasks", access, fmt.Sprintf(`{"title":%q}`, title))
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create task: %d %s", rec.Code, rec.Body.String())
	}
	return out["id"].(string)
}

// --- tests ---

func TestRouter_AuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec, out := s.do(http.MethodPost, "/auth/register", "", `{"email":"admin@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated || out["role"] != "ADMIN" {
		t.Fatalf("bootstrap admin: %d %+v", rec.Code, out)
	}
	if _, leaked := out["passwordHash"]; leaked {
		t.Fatal("hash leaked")
	}

	rec, _ = s.do(http.MethodPost, "/auth/register", "", `{"email":"admin@example.com","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	rec, _ = s.do(http.MethodPost, "/auth/register", "", `{"email":"bad-email","password":"secret1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", rec.Code)
	}

	rec, out = s.do(http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized || out["error"] != "invalid credentials" {
		t.Fatalf("wrong password: %d %+v", rec.Code, out)
	}

	rec, out = s.do(http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	access, refresh := out["access_token"].(string), out["refresh_token"].(string)

	rec, out = s.do(http.MethodGet, "/auth/profile", access, "")
	if rec.Code != http.StatusOK || out["email"] != "admin@example.com" {
		t.Fatalf("profile: %d %+v", rec.Code, out)
	}

	rec, _ = s.do(http.MethodGet, "/auth/profile", refresh, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token as access: expected 401, got %d", rec.Code)
	}

	rec, out = s.do(http.MethodPost, "/auth/refresh", "", fmt.Sprintf(`{"refresh_token":%q}`, refresh))
	if rec.Code != http.StatusOK || out["access_token"] == "" {
		t.Fatalf("refresh: %d %+v", rec.Code, out)
	}

	rec, _ = s.do(http.MethodPost, "/auth/refresh", "", fmt.Sprintf(`{"refresh_token":%q}`, access))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: expected 401, got %d", rec.Code)
	}
}

func TestRouter_TaskOwnership(t *testing.T) {
	s := newTestServer(t)
	adminAccess, _ := s.signup("admin@example.com")
	aliceAccess, _ := s.signup("alice@example.com")
	bobAccess, _ := s.signup("bob@example.com")

	aliceTask := s.createTask(aliceAccess, "alice's task")
	s.createTask(bobAccess, "bob's task")

	rec, _ := s.do(http.MethodGet, "/v1/tasks/"+aliceTask, bobAccess, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bob reading alice's task: expected 403, got %d", rec.Code)
	}
	rec, _ = s.do(http.MethodPatch, "/v1/tasks/"+aliceTask, bobAccess, `{"status":"DONE"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bob updating alice's task: expected 403, got %d", rec.Code)
	}

	rec, out := s.do(http.MethodGet, "/v1/tasks/"+aliceTask, aliceAccess, "")
	if rec.Code != http.StatusOK || out["title"] != "alice's task" {
		t.Fatalf("owner read: %d %+v", rec.Code, out)
	}
	owner, _ := out["owner"].(map[string]any)
	if owner["email"] != "alice@example.com" {
		t.Fatalf("owner not populated: %+v", out)
	}

	rec, out = s.do(http.MethodGet, "/v1/tasks", aliceAccess, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	if data := out["data"].([]any); len(data) != 1 {
		t.Fatalf("alice should see only her task, got %d", len(data))
	}

	rec, out = s.do(http.MethodGet, "/v1/tasks", adminAccess, "")
	if data := out["data"].([]any); rec.Code != http.StatusOK || len(data) != 2 {
		t.Fatalf("admin should see all tasks: %d %+v", rec.Code, out)
	}

	rec, out = s.do(http.MethodPatch, "/v1/tasks/"+aliceTask, adminAccess, `{"status":"IN_PROGRESS"}`)
	if rec.Code != http.StatusOK || out["status"] != "IN_PROGRESS" || out["title"] != "alice's task" {
		t.Fatalf("admin partial update: %d %+v", rec.Code, out)
	}

	rec, _ = s.do(http.MethodDelete, "/v1/tasks/"+aliceTask, bobAccess, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bob deleting: expected 403, got %d", rec.Code)
	}
	rec, _ = s.do(http.MethodDelete, "/v1/tasks/"+aliceTask, aliceAccess, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/v1/tasks/"+aliceTask, aliceAccess, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted task: expected 404, got %d", rec.Code)
	}
}

func TestRouter_Pagination(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.signup("alice@example.com")
	for i := 0; i < 15; i++ {
		s.createTask(access, fmt.Sprintf("task %d", i))
	}

	cases := []struct {
		query     string
		items     int
		pages     float64
		wantTotal float64
	}{
		{"", 10, 2, 15},
		{"?page=2", 5, 2, 15},
		{"?page=3", 0, 2, 15},
		{"?page=1&limit=15", 15, 1, 15},
	}
	for _, tc := range cases {
		rec, out := s.do(http.MethodGet, "/v1/tasks"+tc.query, access, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", tc.query, rec.Code)
		}
		data := out["data"].([]any)
		pg := out["pagination"].(map[string]any)
		if len(data) != tc.items || pg["total"] != tc.wantTotal || pg["total_pages"] != tc.pages {
			t.Errorf("%s: items=%d pagination=%+v", tc.query, len(data), pg)
		}
	}

	for _, q := range []string{"?page=0", "?limit=-5", "?page=x"} {
		if rec, _ := s.do(http.MethodGet, "/v1/tasks"+q, access, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/v1/tasks", "/v1/tasks/task-001", "/auth/profile", "/v1/admin/tasks/task-001/activity"} {
		rec, out := s.do(http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized || out["error"] == nil {
			t.Errorf("%s: expected 401 envelope, got %d %+v", path, rec.Code, out)
		}
	}
}

func TestRouter_AdminActivity(t *testing.T) {
	s := newTestServer(t)
	adminAccess, _ := s.signup("admin@example.com")
	aliceAccess, _ := s.signup("alice@example.com")

	id := s.createTask(aliceAccess, "audited")
	s.do(http.MethodPatch, "/v1/tasks/"+id, aliceAccess, `{"title":"audited twice"}`)

	rec, _ := s.do(http.MethodGet, "/v1/admin/tasks/"+id+"/activity", aliceAccess, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}

	rec, out := s.do(http.MethodGet, "/v1/admin/tasks/"+id+"/activity", adminAccess, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: %d", rec.Code)
	}
	data := out["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected created+updated records, got %+v", data)
	}
	if first := data[0].(map[string]any); first["action"] != "created" {
		t.Errorf("first action = %v", first["action"])
	}
}

func TestRouter_OperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	if rec, _ := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/health: %d", rec.Code)
	}
	if rec, _ := s.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/health/ready: %d", rec.Code)
	}

	s.do(http.MethodGet, "/health", "", "")
	rec, _ := s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("/metrics: %d", rec.Code)
	}
}
