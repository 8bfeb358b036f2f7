package console

import (
	"context"
	"sync"
	"time"

	"adminka/internal/content"
	"adminka/internal/models"
	"adminka/internal/optimistic"
	"adminka/internal/pagination"
	"adminka/internal/sidebar"
)

const (
	RolesPageSize = 12
	UsersPageSize = 12
	LogsPageSize  = 7
)

// list is the filter and page shared by the paged views.
type list struct {
	mu     sync.Mutex
	filter string
	page   int
}

func (l *list) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = ""
	l.page = 1
}

// SetFilter changes the filter and goes back to the first page.
func (l *list) SetFilter(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = term
	l.page = 1
}

func (l *list) SetPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = page
}

func (l *list) state() (string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter, l.page
}

// Paged is one page of a filtered collection.
type Paged[T any] struct {
	Loaded  bool
	Filter  string
	Items   []T
	Control pagination.Control
}

func paginate[T any](loaded bool, filter string, page, size int, matched []T) Paged[T] {
	count := pagination.PageCount(len(matched), size)
	page = pagination.Clamp(page, count)
	return Paged[T]{
		Loaded:  loaded,
		Filter:  filter,
		Items:   pagination.Slice(matched, page, size),
		Control: pagination.NewControl(page, count),
	}
}

type named interface {
	DisplayName() string
}

func filterByName[T named](items []T, term string) []T {
	var out []T
	for _, v := range items {
		if content.Contains(v.DisplayName(), term) {
			out = append(out, v)
		}
	}
	return out
}

// RolesView is the roles page. Only roles the console may edit are listed.
type RolesView struct {
	w     *Workspace
	store optimistic.Store[models.Role]
	list
}

func (v *RolesView) Open(ctx context.Context) {
	v.reset()
	v.store.Reset()
	roles, err := v.w.backend.EditableRoles(ctx)
	if err != nil {
		v.w.fetchFailed("roles", err)
		return
	}
	v.store.Replace(roles)
}

func (v *RolesView) Page() Paged[models.Role] {
	filter, page := v.state()
	return paginate(v.store.Loaded(), filter, page, RolesPageSize, filterByName(v.store.Items(), filter))
}

func (v *RolesView) find(id int64) (models.Role, bool) {
	for _, r := range v.store.Items() {
		if r.ID == id {
			return r, true
		}
	}
	return models.Role{}, false
}

func (v *RolesView) Create(name string) error {
	name = content.Sanitize(name)
	if err := sidebar.CheckCreate(sidebar.TargetRole, name, ""); err != nil {
		return err
	}
	tempID := time.Now().UnixMilli()
	mutate(v.w, PageRoles, "role", &v.store, optimistic.Mutation[models.Role]{
		Apply: func(items []models.Role) []models.Role {
			return append(items, models.Role{ID: tempID, Name: name})
		},
		Call: func(ctx context.Context) ([]models.Role, error) {
			return v.w.backend.CreateRole(ctx, name)
		},
		Refetch: v.w.backend.EditableRoles,
	})
	return nil
}

func (v *RolesView) Rename(id int64, name string) error {
	current, ok := v.find(id)
	if !ok {
		return models.ErrNotFound
	}
	name = content.Sanitize(name)
	if err := sidebar.CheckRename(current.Name, name); err != nil {
		return err
	}
	mutate(v.w, PageRoles, "role", &v.store, optimistic.Mutation[models.Role]{
		Apply: func(items []models.Role) []models.Role {
			for i := range items {
				if items[i].ID == id {
					items[i].Name = name
				}
			}
			return items
		},
		Call: func(ctx context.Context) ([]models.Role, error) {
			return v.w.backend.RenameRole(ctx, id, name)
		},
		Refetch: v.w.backend.EditableRoles,
	})
	return nil
}

func (v *RolesView) Delete(id int64) error {
	if _, ok := v.find(id); !ok {
		return models.ErrNotFound
	}
	mutate(v.w, PageRoles, "role", &v.store, optimistic.Mutation[models.Role]{
		Apply: func(items []models.Role) []models.Role {
			return removeByID(items, func(r models.Role) bool { return r.ID == id })
		},
		Call: func(ctx context.Context) ([]models.Role, error) {
			return v.w.backend.DeleteRole(ctx, id)
		},
		Refetch: v.w.backend.EditableRoles,
	})
	return nil
}
