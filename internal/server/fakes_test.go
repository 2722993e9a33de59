package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/hr-admin/internal/config"
	"github.com/jonathan/hr-admin/internal/contracts"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/onboarding"
	"github.com/jonathan/hr-admin/internal/recruitment"
	"github.com/jonathan/hr-admin/internal/resume"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

// ---------------------------------------------------------------------
// In-memory stores
// ---------------------------------------------------------------------

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]db.User
	// failUpdatePassword makes UpdatePassword fail, for rollback tests
	failUpdatePassword bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]db.User)}
}

func (f *fakeUsers) CheckEmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, name, email, phone string, role db.Role) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return uuid.Nil, db.ErrConflict
		}
	}
	now := time.Now()
	u := db.User{ID: uuid.New(), Name: name, Email: email, Phone: phone, Role: role, CreatedAt: now, UpdatedAt: now}
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	if f.failUpdatePassword {
		return errors.New("update failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return errors.Wrapf(db.ErrNotFound, "user %s", userID)
	}
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	f.users[userID] = u
	return nil
}

func (f *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return errors.Wrapf(db.ErrNotFound, "user %s", id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) ListUsers(_ context.Context) ([]db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) SetUserRole(_ context.Context, id uuid.UUID, role db.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return errors.Wrapf(db.ErrNotFound, "user %s", id)
	}
	u.Role = role
	f.users[id] = u
	return nil
}

type fakeRecords struct {
	mu          sync.Mutex
	employees   map[uuid.UUID]db.Employee
	departments map[uuid.UUID]db.Department
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		employees:   make(map[uuid.UUID]db.Employee),
		departments: make(map[uuid.UUID]db.Department),
	}
}

func (f *fakeRecords) CreateEmployee(_ context.Context, e *db.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.employees {
		if strings.EqualFold(other.Email, e.Email) {
			return errors.Wrapf(db.ErrConflict, "employee email %s", e.Email)
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeRecords) GetEmployee(_ context.Context, id uuid.UUID) (*db.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeRecords) EmployeeExists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.employees[id]
	return ok, nil
}

func (f *fakeRecords) ListEmployees(_ context.Context, filters db.EmployeeFilters) ([]db.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Employee
	for _, e := range f.employees {
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		if filters.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *filters.DepartmentID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRecords) UpdateEmployee(_ context.Context, e *db.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[e.ID]; !ok {
		return errors.Wrapf(db.ErrNotFound, "employee %s", e.ID)
	}
	e.UpdatedAt = time.Now()
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeRecords) DeleteEmployee(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.employees, id)
	return nil
}

func (f *fakeRecords) CountEmployees(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.employees {
		if e.Status != db.EmployeeTerminated {
			n++
		}
	}
	return n, nil
}

func (f *fakeRecords) CreateDepartment(_ context.Context, d *db.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.departments[d.ID] = *d
	return nil
}

func (f *fakeRecords) GetDepartment(_ context.Context, id uuid.UUID) (*db.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.departments[id]
	if !ok {
		return nil, nil
	}
	d.EmployeeCount = 0
	for _, e := range f.employees {
		if e.DepartmentID != nil && *e.DepartmentID == id {
			d.EmployeeCount++
		}
	}
	return &d, nil
}

func (f *fakeRecords) ListDepartments(_ context.Context) ([]db.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Department, 0, len(f.departments))
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRecords) UpdateDepartment(_ context.Context, d *db.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.departments[d.ID]; !ok {
		return errors.Wrapf(db.ErrNotFound, "department %s", d.ID)
	}
	f.departments[d.ID] = *d
	return nil
}

func (f *fakeRecords) DeleteDepartment(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.departments, id)
	return nil
}

func (f *fakeRecords) CountDepartments(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.departments), nil
}

type fakeCandidates struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]recruitment.Candidate
}

func newFakeCandidates() *fakeCandidates {
	return &fakeCandidates{candidates: make(map[uuid.UUID]recruitment.Candidate)}
}

func (f *fakeCandidates) CreateCandidate(_ context.Context, c *recruitment.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[c.ID] = *c
	return nil
}

func (f *fakeCandidates) GetCandidate(_ context.Context, id uuid.UUID) (*recruitment.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCandidates) UpdateCandidate(_ context.Context, c *recruitment.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[c.ID] = *c
	return nil
}

func (f *fakeCandidates) DeleteCandidate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.candidates, id)
	return nil
}

func (f *fakeCandidates) ListCandidates(_ context.Context, filter recruitment.ListFilter) ([]recruitment.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recruitment.Candidate
	for _, c := range f.candidates {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if c.CVScore < filter.MinScore {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b recruitment.Candidate) int { return b.CVScore - a.CVScore })
	return out, nil
}

func (f *fakeCandidates) CandidateEmailExists(_ context.Context, email string, exclude uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.candidates {
		if c.ID != exclude && strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCandidates) CountCandidatesByStatus(_ context.Context) (map[recruitment.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[recruitment.Status]int)
	for _, c := range f.candidates {
		counts[c.Status]++
	}
	return counts, nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]onboarding.Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: make(map[uuid.UUID]onboarding.Task)}
}

func cloneTask(t onboarding.Task) onboarding.Task {
	t.Dependencies = slices.Clone(t.Dependencies)
	t.Attachments = slices.Clone(t.Attachments)
	t.Comments = slices.Clone(t.Comments)
	t.Checklist = slices.Clone(t.Checklist)
	return t
}

func (f *fakeTasks) CreateTask(_ context.Context, t *onboarding.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (f *fakeTasks) GetTask(_ context.Context, id uuid.UUID) (*onboarding.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	c := cloneTask(t)
	return &c, nil
}

func (f *fakeTasks) GetTasks(_ context.Context, ids []uuid.UUID) ([]onboarding.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []onboarding.Task
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, t *onboarding.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	return nil
}

func (f *fakeTasks) ListTasks(_ context.Context, q onboarding.Query) ([]onboarding.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []onboarding.Task
	for _, t := range f.tasks {
		if q.EmployeeID != nil && t.EmployeeID != *q.EmployeeID {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, t.Status) {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.DueBefore != nil && !t.DueDate.Before(*q.DueBefore) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out, nil
}

func (f *fakeTasks) CountTasksByStatus(_ context.Context, employeeID *uuid.UUID) (map[onboarding.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[onboarding.Status]int)
	for _, t := range f.tasks {
		if employeeID != nil && t.EmployeeID != *employeeID {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

type fakePrinter struct {
	html string
}

func (p *fakePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	return []byte("%PDF-1.4 fake"), nil
}

// ---------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------

type testEnv struct {
	t          *testing.T
	server     *Server
	users      *fakeUsers
	records    *fakeRecords
	candidates *fakeCandidates
	tasks      *fakeTasks
	printer    *fakePrinter
	now        time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:      config.JWTConfig{Secret: testSecret, ExpirationHours: 24},
		Password: config.PasswordConfig{BcryptCost: bcrypt.MinCost},
		Contracts: config.ContractsConfig{
			CompanyName:     "Acme GmbH",
			CompanyAddress:  "Hauptstrasse 1, Berlin",
			ProbationMonths: 6,
			NoticeDays:      30,
		},
	}
}

// newTestEnv builds a server over in-memory stores. Deps left zero in
// override are filled in.
func newTestEnv(t *testing.T, override Deps) *testEnv {
	t.Helper()
	env := &testEnv{
		t:          t,
		users:      newFakeUsers(),
		records:    newFakeRecords(),
		candidates: newFakeCandidates(),
		tasks:      newFakeTasks(),
		printer:    &fakePrinter{},
		now:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	renderer, err := contracts.NewRenderer("")
	require.NoError(t, err)

	deps := override
	if deps.Users == nil {
		deps.Users = env.users
	}
	if deps.Records == nil {
		deps.Records = env.records
	}
	if deps.Candidates == nil {
		deps.Candidates = recruitment.NewService(env.candidates, nil)
	}
	if deps.Tasks == nil {
		deps.Tasks = onboarding.NewService(env.tasks, onboarding.WithClock(func() time.Time { return env.now }))
	}
	if deps.CVs == nil {
		deps.CVs = resume.NewStore(t.TempDir(), 1<<20)
	}
	if deps.Contracts == nil {
		deps.Contracts = renderer
	}
	if deps.Printer == nil {
		deps.Printer = env.printer
	}

	env.server = NewWithDeps(testConfig(), deps, nil)
	t.Cleanup(env.server.Close)
	return env
}

// login stores a user with the given role and returns a bearer token for it.
func (e *testEnv) login(role db.Role) (uuid.UUID, string) {
	e.t.Helper()
	id, err := e.users.CreateUser(context.Background(), string(role)+" user", uuid.NewString()+"@example.com", "", role)
	require.NoError(e.t, err)
	token, err := e.server.jwtService.GenerateToken(id, string(role))
	require.NoError(e.t, err)
	return id, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) addEmployee(emp db.Employee) db.Employee {
	e.t.Helper()
	if emp.Status == "" {
		emp.Status = db.EmployeeActive
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = db.EmploymentFullTime
	}
	require.NoError(e.t, e.records.CreateEmployee(context.Background(), &emp))
	return emp
}
