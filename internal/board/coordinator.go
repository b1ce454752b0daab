// Package board owns the client-side state of the task board and
// orchestrates the fetches that keep it in sync with the server.
package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"
	"sync"

	"taskboard/internal/client"
	"taskboard/internal/models"
)

// DuplicatePersonWarning is shown when adding an email already on the list.
const DuplicatePersonWarning = "This email is already added"

// DataSource is the data access layer the coordinator reads from.
// *client.Client implements it.
type DataSource interface {
	FetchTasks(ctx context.Context, filter models.Filter) ([]models.Task, error)
	FetchAnalytics(ctx context.Context) (models.Analytics, error)
	FetchPeople(ctx context.Context) ([]string, error)
	FetchUser(ctx context.Context) (*models.User, error)
	AddPerson(ctx context.Context, email string) (bool, error)
}

// Notifier shows a non-blocking message to the user.
type Notifier interface {
	Warn(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Warn(message string) { f(message) }

// Session is the stored client credential, read once and never written by
// the coordinator.
type Session struct {
	Token string
	Name  string
}

// State is a point-in-time copy of everything the coordinator owns.
type State struct {
	Tasks     []models.Task
	Analytics models.Analytics
	Filter    models.Filter
	Loading   bool
	People    []string
	User      *models.User
}

type Coordinator struct {
	api      DataSource
	session  Session
	notifier Notifier
	logger   *log.Logger

	mu         sync.Mutex
	tasks      []models.Task
	analytics  models.Analytics
	filter     models.Filter
	loading    bool
	people     []string
	user       *models.User
	generation uint64
	mounted    bool

	filterListeners []func(ctx context.Context, f models.Filter)
	changeListeners []func()
}

type Option func(*Coordinator)

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// New creates a coordinator with the default filter and empty state.
func New(api DataSource, session Session, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:       api,
		session:   session,
		logger:    log.New(os.Stderr, "board: ", log.LstdFlags),
		tasks:     []models.Task{},
		analytics: models.Analytics{},
		filter:    models.DefaultFilter,
		people:    []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(message string) { c.logger.Println("warning:", message) })
	}
	return c
}

// Session returns the injected session.
func (c *Coordinator) Session() Session { return c.session }

// Mount registers the refresh-on-filter-change observer and, when the session
// carries a token, runs the first refresh. Calling it again only refreshes.
func (c *Coordinator) Mount(ctx context.Context) {
	c.mu.Lock()
	first := !c.mounted
	c.mounted = true
	c.mu.Unlock()

	if first {
		c.OnFilterChange(func(ctx context.Context, _ models.Filter) {
			if c.session.Token != "" {
				c.FetchData(ctx)
			}
		})
	}
	if c.session.Token != "" {
		c.FetchData(ctx)
	}
}

// OnFilterChange registers fn to run, on the caller's goroutine, after every
// filter change.
func (c *Coordinator) OnFilterChange(fn func(ctx context.Context, f models.Filter)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filterListeners = append(c.filterListeners, fn)
}

// OnChange registers fn to run after any state field changes.
func (c *Coordinator) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changeListeners = append(c.changeListeners, fn)
}

// SetFilter updates the filter and publishes the change. Setting the current
// filter again is a no-op. Filter observers run before SetFilter returns.
func (c *Coordinator) SetFilter(ctx context.Context, f models.Filter) error {
	if !f.Valid() {
		return fmt.Errorf("invalid filter %q", f)
	}

	c.mu.Lock()
	if c.filter == f {
		c.mu.Unlock()
		return nil
	}
	c.filter = f
	listeners := slices.Clone(c.filterListeners)
	c.mu.Unlock()

	c.changed()
	for _, fn := range listeners {
		fn(ctx, f)
	}
	return nil
}

// FetchData runs the refresh sequence: tasks, analytics, people, user, in
// that order, each awaited before the next. A failed step is logged and the
// sequence continues. Results of a sequence superseded by a newer FetchData
// are discarded, and only the newest sequence clears the loading flag.
func (c *Coordinator) FetchData(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	filter := c.filter
	c.loading = true
	c.mu.Unlock()
	c.changed()

	c.fetchTasks(ctx, gen, filter)
	c.fetchAnalytics(ctx, gen)
	c.fetchPeople(ctx, gen)
	c.fetchUser(ctx, gen)

	c.apply(gen, "loading", func() { c.loading = false })
}

// FetchTasks refreshes only the tasks for the current filter.
func (c *Coordinator) FetchTasks(ctx context.Context) {
	gen, filter := c.current()
	c.fetchTasks(ctx, gen, filter)
}

// FetchAnalytics refreshes only the analytics.
func (c *Coordinator) FetchAnalytics(ctx context.Context) {
	gen, _ := c.current()
	c.fetchAnalytics(ctx, gen)
}

// FetchPeople refreshes only the people list.
func (c *Coordinator) FetchPeople(ctx context.Context) {
	gen, _ := c.current()
	c.fetchPeople(ctx, gen)
}

// FetchUser refreshes only the user.
func (c *Coordinator) FetchUser(ctx context.Context) {
	gen, _ := c.current()
	c.fetchUser(ctx, gen)
}

func (c *Coordinator) fetchTasks(ctx context.Context, gen uint64, filter models.Filter) {
	tasks, err := c.api.FetchTasks(ctx, filter)
	if err != nil {
		c.logger.Printf("error fetching tasks: %v", err)
		return
	}
	c.apply(gen, "tasks", func() { c.tasks = tasks })
}

func (c *Coordinator) fetchAnalytics(ctx context.Context, gen uint64) {
	analytics, err := c.api.FetchAnalytics(ctx)
	if err != nil {
		c.logger.Printf("error fetching analytics: %v", err)
		return
	}
	c.apply(gen, "analytics", func() { c.analytics = analytics })
}

func (c *Coordinator) fetchPeople(ctx context.Context, gen uint64) {
	people, err := c.api.FetchPeople(ctx)
	if errors.Is(err, client.ErrShapeMismatch) {
		c.logger.Printf("fetched people is not an array, keeping %d known: %v", len(c.People()), err)
		return
	}
	if err != nil {
		c.logger.Printf("error fetching people: %v", err)
		return
	}
	if people == nil {
		people = []string{}
	}
	c.apply(gen, "people", func() { c.people = people })
}

func (c *Coordinator) fetchUser(ctx context.Context, gen uint64) {
	user, err := c.api.FetchUser(ctx)
	if err != nil {
		c.logger.Printf("error fetching user: %v", err)
		return
	}
	c.apply(gen, "user", func() { c.user = user })
}

// AddPerson adds a collaborator by email. An email already in the list is
// rejected with a warning and no request. The list is extended locally when
// the server reports success.
func (c *Coordinator) AddPerson(ctx context.Context, email string) bool {
	c.mu.Lock()
	duplicate := slices.Contains(c.people, email)
	c.mu.Unlock()

	if duplicate {
		c.notifier.Warn(DuplicatePersonWarning)
		return false
	}

	ok, err := c.api.AddPerson(ctx, email)
	if err != nil {
		c.logger.Printf("error adding person: %v", err)
		return false
	}
	if !ok {
		c.logger.Printf("failed to add person %q", email)
		return false
	}

	c.mu.Lock()
	// a concurrent add of the same email may have landed first
	if !slices.Contains(c.people, email) {
		c.people = append(slices.Clone(c.people), email)
	}
	c.mu.Unlock()
	c.changed()
	return true
}

func (c *Coordinator) current() (uint64, models.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, c.filter
}

// apply runs write under the lock unless gen has been superseded.
func (c *Coordinator) apply(gen uint64, field string, write func()) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Printf("discarding stale %s from refresh %d", field, gen)
		return false
	}
	write()
	c.mu.Unlock()
	c.changed()
	return true
}

func (c *Coordinator) changed() {
	c.mu.Lock()
	listeners := slices.Clone(c.changeListeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Setters

func (c *Coordinator) SetTasks(tasks []models.Task) {
	c.set(func() { c.tasks = slices.Clone(tasks) })
}

func (c *Coordinator) SetAnalytics(a models.Analytics) {
	c.set(func() { c.analytics = maps.Clone(a) })
}

func (c *Coordinator) SetLoading(loading bool) {
	c.set(func() { c.loading = loading })
}

func (c *Coordinator) SetPeople(people []string) {
	c.set(func() { c.people = slices.Clone(people) })
}

func (c *Coordinator) SetUser(user *models.User) {
	c.set(func() { c.user = user })
}

func (c *Coordinator) set(write func()) {
	c.mu.Lock()
	write()
	c.mu.Unlock()
	c.changed()
}

// Getters return copies so callers cannot mutate coordinator state.

func (c *Coordinator) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

func (c *Coordinator) Analytics() models.Analytics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.analytics)
}

func (c *Coordinator) Filter() models.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Coordinator) People() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.people)
}

func (c *Coordinator) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Snapshot returns every field under a single lock.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	var user *models.User
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return State{
		Tasks:     slices.Clone(c.tasks),
		Analytics: maps.Clone(c.analytics),
		Filter:    c.filter,
		Loading:   c.loading,
		People:    slices.Clone(c.people),
		User:      user,
	}
}
