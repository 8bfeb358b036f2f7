package api

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"adminka/internal/auth"
	"adminka/internal/console"
	"adminka/internal/content"
	"adminka/internal/logger"
	"adminka/internal/pagination"
	"adminka/internal/sidebar"
)

// pageTemplates are rendered inside the console layout.
var pageTemplates = []string{"home", "categories", "roles", "users", "logs", "schedule", "settings"}

// bareTemplates are full documents without the console chrome.
var bareTemplates = []string{"login", "loading", "noaccess"}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"capitalize": content.Capitalize,
	"when":       console.When,
	"deref": func(b *bool) bool {
		return b != nil && *b
	},
}

func NewRenderer(assets fs.FS) (*Renderer, error) {
	base, err := template.New("layout").Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(assets, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t.Lookup("layout")
	}
	for _, name := range bareTemplates {
		t, err := template.New(name).Funcs(funcs).ParseFS(assets, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t.Lookup(name)
	}
	return r, nil
}

// Render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.pages[name]
	if !ok {
		logger.Get().Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logger.Get().Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type navItem struct {
	Path   string
	Label  string
	Active bool
}

var navigation = []navItem{
	{Path: console.PageHome, Label: "Home"},
	{Path: console.PageCategories, Label: "Categories"},
	{Path: console.PageRoles, Label: "Roles"},
	{Path: console.PageUsers, Label: "Users"},
	{Path: console.PageLogs, Label: "Logs"},
	{Path: console.PageQueues, Label: "Queues"},
	{Path: console.PageEvents, Label: "Events"},
	{Path: console.PageSettings, Label: "Settings"},
}

func nav(path string) []navItem {
	items := make([]navItem, len(navigation))
	for i, n := range navigation {
		n.Active = n.Path == path
		items[i] = n
	}
	return items
}

// pageData is what the layout renders around every console page.
type pageData struct {
	Title    string
	Path     string
	Back     string
	Filter   string
	Identity auth.Identity
	Nav      []navItem
	Toasts   []console.Toast
	Panel    sidebar.Panel
	Form     panelForm
	Pager    Pager
	Now      time.Time
	Data     any
}

// panelButton opens the action panel on an item.
type panelButton struct {
	Back   string
	Action string
	Target string
	ID     string
	Name   string
	Parent string
	Label  string
}

// Open describes a button that opens action on target. id and parent may be
// empty strings or numbers.
func (d pageData) Open(action, target string, id any, name string, parent any) panelButton {
	return panelButton{
		Back:   d.Back,
		Action: action,
		Target: target,
		ID:     fmt.Sprint(id),
		Name:   name,
		Parent: fmt.Sprint(parent),
		Label:  content.Capitalize(action),
	}
}

// panelForm is the form shown in the open panel.
type panelForm struct {
	Action  string
	Hidden  map[string]string
	Name    bool
	Value   string
	Type    bool
	Confirm string
	Submit  string
}

func formFor(p sidebar.Panel) panelForm {
	if !p.IsOpen() || p.Item == nil && p.Action != sidebar.ActionCreate {
		return panelForm{}
	}
	item := p.Item
	if item == nil {
		item = &sidebar.Item{}
	}
	switch p.Action {
	case sidebar.ActionCreate:
		switch p.Target {
		case sidebar.TargetCategory:
			return panelForm{Action: "/categories", Name: true, Submit: "Create"}
		case sidebar.TargetChannel:
			return panelForm{Action: "/categories/" + item.Parent + "/channels", Name: true, Type: true, Submit: "Create"}
		case sidebar.TargetRole:
			return panelForm{Action: "/roles", Name: true, Submit: "Create"}
		}
	case sidebar.ActionRename:
		form := panelForm{Name: true, Value: item.Name, Submit: "Rename"}
		switch p.Target {
		case sidebar.TargetCategory:
			form.Action = "/categories/" + item.ID + "/rename"
		case sidebar.TargetChannel:
			form.Action = "/channels/" + item.ID + "/rename"
			form.Hidden = map[string]string{"category": item.Parent}
		case sidebar.TargetRole:
			form.Action = "/roles/" + item.ID + "/rename"
		case sidebar.TargetUser:
			form.Action = "/users/" + item.ID + "/rename"
		}
		return form
	case sidebar.ActionDelete:
		name := content.Capitalize(item.Name)
		switch p.Target {
		case sidebar.TargetCategory:
			return panelForm{Action: "/categories/" + item.ID + "/delete", Confirm: "Delete category " + name + " and all its channels?", Submit: "Delete"}
		case sidebar.TargetChannel:
			return panelForm{
				Action:  "/channels/" + item.ID + "/delete",
				Hidden:  map[string]string{"category": item.Parent},
				Confirm: "Delete channel " + name + "?",
				Submit:  "Delete",
			}
		case sidebar.TargetRole:
			return panelForm{Action: "/roles/" + item.ID + "/delete", Confirm: "Delete role " + name + "?", Submit: "Delete"}
		case sidebar.TargetUser:
			return panelForm{Action: "/users/" + item.ID + "/kick", Confirm: "Kick " + name + " from the server?", Submit: "Kick"}
		}
	}
	return panelForm{}
}

type pagerLink struct {
	Label    string
	Href     string
	Current  bool
	Ellipsis bool
}

// Pager is a pagination control with links that keep the current query.
// An empty Prev or Next means the control is disabled.
type Pager struct {
	Visible bool
	Prev    string
	Next    string
	Pages   []pagerLink
}

func newPager(c pagination.Control, u *url.URL) Pager {
	if !c.Visible {
		return Pager{}
	}
	href := func(page int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		return u.Path + "?" + q.Encode()
	}

	p := Pager{Visible: true}
	if !c.PrevDisabled {
		p.Prev = href(c.Prev())
	}
	if !c.NextDisabled {
		p.Next = href(c.Next())
	}
	for _, item := range c.Pages {
		if item.Ellipsis {
			p.Pages = append(p.Pages, pagerLink{Ellipsis: true})
			continue
		}
		p.Pages = append(p.Pages, pagerLink{
			Label:   strconv.Itoa(item.Page),
			Href:    href(item.Page),
			Current: item.Current,
		})
	}
	return p
}
