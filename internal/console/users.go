package console

import (
	"context"

	"adminka/internal/content"
	"adminka/internal/models"
	"adminka/internal/optimistic"
	"adminka/internal/sidebar"
)

type UsersView struct {
	w     *Workspace
	store optimistic.Store[models.User]
	list
}

func (v *UsersView) Open(ctx context.Context) {
	v.reset()
	v.store.Reset()
	users, err := v.w.backend.Users(ctx)
	if err != nil {
		v.w.fetchFailed("users", err)
		return
	}
	v.store.Replace(users)
}

func (v *UsersView) Page() Paged[models.User] {
	filter, page := v.state()
	return paginate(v.store.Loaded(), filter, page, UsersPageSize, filterByName(v.store.Items(), filter))
}

func (v *UsersView) find(id string) (models.User, bool) {
	for _, u := range v.store.Items() {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (v *UsersView) Rename(id, name string) error {
	current, ok := v.find(id)
	if !ok {
		return models.ErrNotFound
	}
	name = content.Sanitize(name)
	if err := sidebar.CheckRename(current.Name, name); err != nil {
		return err
	}
	mutate(v.w, PageUsers, "user", &v.store, optimistic.Mutation[models.User]{
		Apply: func(items []models.User) []models.User {
			for i := range items {
				if items[i].ID == id {
					items[i].Name = name
				}
			}
			return items
		},
		Call: func(ctx context.Context) ([]models.User, error) {
			return v.w.backend.RenameUser(ctx, id, name)
		},
		Refetch: v.w.backend.Users,
	})
	return nil
}

// Kick removes a user from the server.
func (v *UsersView) Kick(id string) error {
	if _, ok := v.find(id); !ok {
		return models.ErrNotFound
	}
	mutate(v.w, PageUsers, "user", &v.store, optimistic.Mutation[models.User]{
		Apply: func(items []models.User) []models.User {
			return removeByID(items, func(u models.User) bool { return u.ID == id })
		},
		Call: func(ctx context.Context) ([]models.User, error) {
			return v.w.backend.KickUser(ctx, id)
		},
		Refetch: v.w.backend.Users,
	})
	return nil
}

func (v *UsersView) OpenRoles(ctx context.Context, id string) error {
	u, ok := v.find(id)
	if !ok {
		return models.ErrNotFound
	}
	return v.w.openPermissions(ctx, sidebar.TargetUser,
		&sidebar.Item{ID: id, Name: u.Name},
		func(ctx context.Context) ([]models.Role, error) {
			return v.w.backend.UserRoles(ctx, id)
		})
}

func (v *UsersView) SaveRoles(ctx context.Context, id string) error {
	return v.w.savePermissions(ctx, func(ctx context.Context, ids []int64) ([]models.Role, error) {
		return v.w.backend.EditUserRoles(ctx, id, ids)
	})
}
