// Package console holds the per-session state behind every console page:
// the collections shown, their filters and pages, the action panel and the
// toast queue. Remote mutations run in tracked background tasks and the
// session's open tabs are told to re-render when they resolve.
package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"adminka/internal/gateway"
	"adminka/internal/logger"
	"adminka/internal/metrics"
	"adminka/internal/models"
	"adminka/internal/optimistic"
	"adminka/internal/sidebar"
)

const (
	PageHome       = "/"
	PageCategories = "/categories"
	PageRoles      = "/roles"
	PageUsers      = "/users"
	PageLogs       = "/logs"
	PageQueues     = "/queues"
	PageEvents     = "/events"
	PageSettings   = "/settings"
)

// Backend is the slice of the REST gateway the console drives.
type Backend interface {
	Categories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) ([]models.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id int64) ([]models.Category, error)
	UpdateCategoryPosition(ctx context.Context, id int64, position int) ([]models.Category, error)
	CategoryAccessRoles(ctx context.Context, id int64) ([]models.Role, error)
	EditCategoryPermissions(ctx context.Context, id int64, roleIDs []int64) ([]models.Role, error)

	Channels(ctx context.Context, categoryID int64) ([]models.Channel, error)
	CreateChannel(ctx context.Context, categoryID int64, name string, typ models.ChannelType) ([]models.Channel, error)
	RenameChannel(ctx context.Context, id int64, name string) ([]models.Channel, error)
	DeleteChannel(ctx context.Context, id int64) ([]models.Channel, error)
	UpdateChannelPosition(ctx context.Context, id int64, position int) ([]models.Channel, error)
	NonCategorizedTextChannels(ctx context.Context) ([]models.Channel, error)

	EditableRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, name string) ([]models.Role, error)
	RenameRole(ctx context.Context, id int64, name string) ([]models.Role, error)
	DeleteRole(ctx context.Context, id int64) ([]models.Role, error)

	Users(ctx context.Context) ([]models.User, error)
	RenameUser(ctx context.Context, id, name string) ([]models.User, error)
	KickUser(ctx context.Context, id string) ([]models.User, error)
	UserRoles(ctx context.Context, id string) ([]models.Role, error)
	EditUserRoles(ctx context.Context, id string, roleIDs []int64) ([]models.Role, error)

	Logs(ctx context.Context) ([]models.LogEntry, error)
	CreateQueueMessage(ctx context.Context, channelID, title string, eventTime time.Time) error
	CreateEvent(ctx context.Context, channelID, title string, eventTime time.Time) error

	ServerConfig(ctx context.Context) (models.ServerConfig, error)
	UpdateServerLanguage(ctx context.Context, language string) error
	CreateRegistrationMessage(ctx context.Context, channelID string) error
	SetStaffCategory(ctx context.Context, categoryID string) error
	CreateStaffInfoMessage(ctx context.Context, channelID string) error
}

// Notifier pushes live updates to a session's open tabs.
type Notifier interface {
	Publish(sessionID string, msg models.ServerMessage)
	Disconnect(sessionID string)
}

type Config struct {
	// Timeout bounds every background backend call.
	Timeout time.Duration
}

// Workspaces owns one Workspace per signed-in session.
type Workspaces struct {
	backend  Backend
	notifier Notifier
	config   Config

	mu         sync.Mutex
	workspaces map[string]*Workspace
	// dropped remembers signed-out sessions until they would have expired,
	// so a request still in flight cannot bring their workspace back.
	dropped map[string]time.Time
	tasks   sync.WaitGroup
	now     func() time.Time
}

func NewWorkspaces(config Config, backend Backend, notifier Notifier) *Workspaces {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Workspaces{
		backend:    backend,
		notifier:   notifier,
		config:     config,
		workspaces: make(map[string]*Workspace),
		dropped:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// Get returns the workspace of a session expiring at expiresAt, creating it
// on first use. Workspaces of expired sessions are discarded on the way. An
// expired or signed-out session gets a cancelled workspace that is not kept.
func (ws *Workspaces) Get(sessionID string, expiresAt time.Time) *Workspace {
	ws.mu.Lock()
	now := ws.now()
	expired := ws.sweep(now)
	w, ok := ws.workspaces[sessionID]
	_, gone := ws.dropped[sessionID]
	switch {
	case ok:
	case gone || !expiresAt.After(now):
		w = newWorkspace(ws, sessionID, expiresAt)
		w.cancel()
	default:
		w = newWorkspace(ws, sessionID, expiresAt)
		ws.workspaces[sessionID] = w
	}
	ws.mu.Unlock()

	for _, old := range expired {
		old.cancel()
		ws.notifier.Disconnect(old.id)
	}
	return w
}

// sweep unlinks the workspaces whose session has expired and forgets
// tombstones that outlived their session. ws.mu must be held.
func (ws *Workspaces) sweep(now time.Time) []*Workspace {
	var expired []*Workspace
	for id, w := range ws.workspaces {
		if !w.expiresAt.After(now) {
			delete(ws.workspaces, id)
			expired = append(expired, w)
		}
	}
	for id, until := range ws.dropped {
		if !until.After(now) {
			delete(ws.dropped, id)
		}
	}
	return expired
}

// Drop discards the workspace of a session expiring at expiresAt and cancels
// its pending tasks. The session cannot get a workspace again.
func (ws *Workspaces) Drop(sessionID string, expiresAt time.Time) {
	ws.mu.Lock()
	w, ok := ws.workspaces[sessionID]
	delete(ws.workspaces, sessionID)
	if expiresAt.After(ws.now()) {
		ws.dropped[sessionID] = expiresAt
	}
	ws.mu.Unlock()

	if ok {
		w.cancel()
	}
	ws.notifier.Disconnect(sessionID)
}

func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.workspaces)
}

// Wait blocks until every background task has finished.
func (ws *Workspaces) Wait() {
	ws.tasks.Wait()
}

// Workspace is one session's console state.
type Workspace struct {
	id        string
	expiresAt time.Time
	owner     *Workspaces
	backend Backend
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   sync.WaitGroup

	Toasts *Toasts

	mu    sync.Mutex
	page  string
	panel sidebar.Panel

	Categories *CategoriesView
	Roles      *RolesView
	Users      *UsersView
	Logs       *LogsView
	Queues     *ScheduleView
	Events     *ScheduleView
	Settings   *SettingsView
}

func newWorkspace(owner *Workspaces, id string, expiresAt time.Time) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		id:        id,
		expiresAt: expiresAt,
		owner:     owner,
		backend: owner.backend,
		ctx:     ctx,
		cancel:  cancel,
		Toasts:  NewToasts(),
	}
	w.Categories = &CategoriesView{w: w}
	w.Roles = &RolesView{w: w}
	w.Users = &UsersView{w: w}
	w.Logs = &LogsView{w: w}
	w.Queues = &ScheduleView{w: w, page: PageQueues, textOnly: true, create: w.backend.CreateQueueMessage}
	w.Events = &ScheduleView{w: w, page: PageEvents, create: w.backend.CreateEvent}
	w.Settings = &SettingsView{w: w}
	return w
}

func (w *Workspace) ID() string {
	return w.id
}

// Visit records page as the one being shown and reports whether it was just
// opened. Re-rendering the page already shown (after a form post or a live
// refresh) is not an opening.
func (w *Workspace) Visit(page string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	opened := w.page != page
	if opened {
		w.page = page
		w.panel.Close()
	}
	return opened
}

func (w *Workspace) Panel() sidebar.Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panel
}

func (w *Workspace) OpenPanel(action sidebar.Action, target sidebar.Target, item *sidebar.Item) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.panel.Open(action, target, item)
}

func (w *Workspace) ClosePanel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.panel.Close()
}

// Settle waits for this workspace's background tasks.
func (w *Workspace) Settle() {
	w.tasks.Wait()
}

// async runs fn in a tracked background task and tells the session's tabs
// that page changed once it returns.
func (w *Workspace) async(page string, fn func(ctx context.Context)) {
	w.owner.tasks.Add(1)
	w.tasks.Add(1)
	go func() {
		defer w.owner.tasks.Done()
		defer w.tasks.Done()

		ctx, cancel := context.WithTimeout(w.ctx, w.owner.config.Timeout)
		defer cancel()
		fn(ctx)

		if w.ctx.Err() == nil {
			w.owner.notifier.Publish(w.id, models.ServerMessage{Type: models.ServerMessageTypeRefresh, Page: page})
		}
	}()
}

// mutate applies m locally, closes the panel and runs the remote half in the
// background. It returns once the local patch is visible.
func mutate[T any](w *Workspace, page, kind string, s *optimistic.Store[T], m optimistic.Mutation[T]) {
	applied := make(chan struct{})
	m.Applied = func() {
		w.ClosePanel()
		close(applied)
	}
	w.async(page, func(ctx context.Context) {
		if err := optimistic.Mutate(ctx, s, m); err != nil {
			metrics.MutationsTotal.WithLabelValues(kind, "rolled_back").Inc()
			w.mutationFailed(kind, err)
			return
		}
		metrics.MutationsTotal.WithLabelValues(kind, "confirmed").Inc()
	})
	<-applied
}

func (w *Workspace) mutationFailed(kind string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Get().Warn().Err(err).Str("session", w.id).Str("kind", kind).Msg("mutation failed")
	w.Toasts.Error(Message(err), MutationToastTTL)
}

func (w *Workspace) fetchFailed(what string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Get().Warn().Err(err).Str("session", w.id).Str("what", what).Msg("fetch failed")
	w.Toasts.Error(Message(err), FetchToastTTL)
}

// Message is the text shown to staff for a failed call.
func Message(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var clientErr *gateway.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}
