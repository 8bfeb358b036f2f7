package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"adminka/internal/console"
	"adminka/internal/guard"
	"adminka/internal/models"
)

const dateLayout = "2006-01-02"

func (a *API) pageData(r *http.Request, ws *console.Workspace, v guard.Viewer, title, path string) pageData {
	panel := ws.Panel()
	return pageData{
		Title:    title,
		Path:     path,
		Back:     r.URL.RequestURI(),
		Identity: v.Session.Identity,
		Nav:      nav(path),
		Toasts:   ws.Toasts.Active(),
		Panel:    panel,
		Form:     formFor(panel),
		Now:      a.now(),
	}
}

// pageQuery applies the filter and page carried by a list page's URL.
type lister interface {
	SetFilter(term string)
	SetPage(page int)
}

func pageQuery(l lister, q url.Values) {
	if q.Has("q") {
		l.SetFilter(q.Get("q"))
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		l.SetPage(page)
	}
}

func (a *API) HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != console.PageHome {
		http.NotFound(w, r)
		return
	}
	ws, v := a.workspace(r)
	ws.Visit(console.PageHome)
	a.render.Render(w, http.StatusOK, "home", a.pageData(r, ws, v, "Home", console.PageHome))
}

func (a *API) CategoriesPage(w http.ResponseWriter, r *http.Request) {
	ws, v := a.workspace(r)
	if ws.Visit(console.PageCategories) {
		ws.Categories.Open(r.Context())
	}
	if q := r.URL.Query(); q.Has("q") {
		ws.Categories.SetFilter(q.Get("q"))
	}

	page := ws.Categories.Page()
	d := a.pageData(r, ws, v, "Categories", console.PageCategories)
	d.Filter = page.Filter
	d.Data = page
	a.render.Render(w, http.StatusOK, "categories", d)
}

func (a *API) RolesPage(w http.ResponseWriter, r *http.Request) {
	ws, v := a.workspace(r)
	if ws.Visit(console.PageRoles) {
		ws.Roles.Open(r.Context())
	}
	pageQuery(ws.Roles, r.URL.Query())

	page := ws.Roles.Page()
	d := a.pageData(r, ws, v, "Roles", console.PageRoles)
	d.Filter = page.Filter
	d.Pager = newPager(page.Control, r.URL)
	d.Data = page
	a.render.Render(w, http.StatusOK, "roles", d)
}

func (a *API) UsersPage(w http.ResponseWriter, r *http.Request) {
	ws, v := a.workspace(r)
	if ws.Visit(console.PageUsers) {
		ws.Users.Open(r.Context())
	}
	pageQuery(ws.Users, r.URL.Query())

	page := ws.Users.Page()
	d := a.pageData(r, ws, v, "Users", console.PageUsers)
	d.Filter = page.Filter
	d.Pager = newPager(page.Control, r.URL)
	d.Data = page
	a.render.Render(w, http.StatusOK, "users", d)
}

type logsData struct {
	Entries console.Paged[models.LogEntry]
	From    string
	To      string
}

func (a *API) LogsPage(w http.ResponseWriter, r *http.Request) {
	ws, v := a.workspace(r)
	if ws.Visit(console.PageLogs) {
		ws.Logs.Open(r.Context())
	}

	q := r.URL.Query()
	if q.Has("from") || q.Has("to") {
		from, _ := time.ParseInLocation(dateLayout, q.Get("from"), time.Local)
		to, _ := time.ParseInLocation(dateLayout, q.Get("to"), time.Local)
		ws.Logs.SetRange(from, to)
	}
	pageQuery(ws.Logs, q)

	page := ws.Logs.Page()
	data := logsData{Entries: page}
	if from, to := ws.Logs.Range(); !from.IsZero() && !to.IsZero() {
		data.From = from.Format(dateLayout)
		data.To = to.Format(dateLayout)
	}

	d := a.pageData(r, ws, v, "Logs", console.PageLogs)
	d.Filter = page.Filter
	d.Pager = newPager(page.Control, r.URL)
	d.Data = data
	a.render.Render(w, http.StatusOK, "logs", d)
}

// SchedulePage renders the queues or the events form.
func (a *API) SchedulePage(title string, view func(*console.Workspace) *console.ScheduleView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, v := a.workspace(r)
		sv := view(ws)
		if ws.Visit(sv.Page()) {
			sv.Open(r.Context())
		}

		d := a.pageData(r, ws, v, title, sv.Page())
		d.Data = sv.Form()
		a.render.Render(w, http.StatusOK, "schedule", d)
	}
}

func (a *API) SettingsPage(w http.ResponseWriter, r *http.Request) {
	ws, v := a.workspace(r)
	if ws.Visit(console.PageSettings) {
		ws.Settings.Open(r.Context())
	}

	d := a.pageData(r, ws, v, "Settings", console.PageSettings)
	d.Data = ws.Settings.Page()
	a.render.Render(w, http.StatusOK, "settings", d)
}
