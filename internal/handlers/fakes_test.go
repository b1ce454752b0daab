package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"taskboard/config"
	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.People = slices.Clone(u.People)
	return &c
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return errors.New("duplicate key")
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.People == nil {
		user.People = []string{}
	}
	f.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	return f.find(func(u *models.User) bool { return u.ID == oid })
}

func (f *fakeUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (f *fakeUsers) update(id string, write func(*models.User)) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[oid]
	if !ok {
		return mongo.ErrNoDocuments
	}
	write(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, userID, name, passwordHash string) error {
	return f.update(userID, func(u *models.User) {
		if name != "" {
			u.Name = name
		}
		if passwordHash != "" {
			u.Password = passwordHash
		}
	})
}

func (f *fakeUsers) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	return f.update(userID, func(u *models.User) { u.RefreshToken = refreshToken })
}

func (f *fakeUsers) LinkGoogle(ctx context.Context, userID, googleID, picture string) error {
	return f.update(userID, func(u *models.User) {
		u.GoogleID = googleID
		u.Picture = picture
	})
}

func (f *fakeUsers) AddPerson(ctx context.Context, userID, email string) (bool, []string, error) {
	var added bool
	var people []string
	err := f.update(userID, func(u *models.User) {
		if !slices.Contains(u.People, email) {
			u.People = append(u.People, email)
			added = true
		}
		people = slices.Clone(u.People)
	})
	return added, people, err
}

func (f *fakeUsers) ListPeople(ctx context.Context, userID string) ([]string, error) {
	u, err := f.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.People, nil
}

func (f *fakeUsers) ListDirectory(ctx context.Context, excludeID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.ID.Hex() == excludeID {
			continue
		}
		out = append(out, models.User{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// fakeTasks is an in-memory TaskStore.
type fakeTasks struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*models.Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[primitive.ObjectID]*models.Task{}}
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Checklist = slices.Clone(t.Checklist)
	return &c
}

func (f *fakeTasks) Create(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = primitive.NewObjectID()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.UpdatedAt = task.CreatedAt
	if task.State == "" {
		task.State = models.StateTodo
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTasks) FindByID(ctx context.Context, taskID string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return copyTask(t), nil
}

func (f *fakeTasks) ListForUser(ctx context.Context, userID, email string, since time.Time) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Task{}
	for _, t := range f.tasks {
		if !canView(t, userID, email) || t.CreatedAt.Before(since) {
			continue
		}
		out = append(out, *copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTasks) Replace(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	task.UpdatedAt = time.Now()
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTasks) SetChecklistItem(ctx context.Context, taskID, itemID string, done bool) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for i := range t.Checklist {
		if t.Checklist[i].ID == itemID {
			t.Checklist[i].Done = done
			return copyTask(t), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTasks) Delete(ctx context.Context, taskID string) error {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[oid]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.tasks, oid)
	return nil
}

// seed stores a task directly, bypassing the handlers.
func (f *fakeTasks) seed(t models.Task) models.Task {
	_ = f.Create(context.Background(), &t)
	return t
}

type fakeAnalytics struct {
	analytics models.Analytics
	err       error
	gotUser   string
}

func (f *fakeAnalytics) GetAnalytics(ctx context.Context, userID, email string) (models.Analytics, error) {
	f.gotUser = userID
	return f.analytics, f.err
}

// testEnv is a router wired to in-memory stores.
type testEnv struct {
	cfg       *config.Config
	router    *gin.Engine
	users     *fakeUsers
	tasks     *fakeTasks
	analytics *fakeAnalytics
	pingErr   error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		cfg: &config.Config{
			JWTSecret:            "test-secret",
			JWTAccessExpiration:  time.Hour,
			JWTRefreshExpiration: 24 * time.Hour,
			FrontendURL:          "http://localhost:3000",
			RequestTimeout:       5 * time.Second,
		},
		users:     newFakeUsers(),
		tasks:     newFakeTasks(),
		analytics: &fakeAnalytics{analytics: models.NewAnalytics()},
	}
	env.router = NewRouter(env.cfg, Dependencies{
		Users:     env.users,
		Tasks:     env.tasks,
		Analytics: env.analytics,
		Ping:      func(ctx context.Context) error { return env.pingErr },
	})
	return env
}

// seedUser creates a user with an email login and returns it with an access token.
func (e *testEnv) seedUser(t *testing.T, name, email, password string) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, Password: hash, Provider: ProviderEmail}
	require.NoError(t, e.users.Create(context.Background(), u))
	token, err := utils.GenerateAccessToken(u.ID.Hex(), u.Email, e.cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) models.ErrorResponse {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decode[models.ErrorResponse](t, w)
	require.Equal(t, code, resp.Error)
	return resp
}
