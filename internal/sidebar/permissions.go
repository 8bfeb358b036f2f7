package sidebar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"adminka/internal/models"

	"golang.org/x/sync/errgroup"
)

type RolesFetch func(ctx context.Context) ([]models.Role, error)

// PermissionEditor edits the set of roles granted on a category or to a user.
type PermissionEditor struct {
	mu       sync.RWMutex
	original []models.Role
	working  []models.Role
	catalog  []models.Role
	granted  RolesFetch
}

// LoadPermissions fetches the granted roles and the role catalog
// concurrently.
func LoadPermissions(ctx context.Context, granted, catalog RolesFetch) (*PermissionEditor, error) {
	e := PermissionEditor{granted: granted}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roles, err := granted(gCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch granted roles: %w", err)
		}
		e.original = roles
		return nil
	})
	g.Go(func() error {
		roles, err := catalog(gCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch roles: %w", err)
		}
		e.catalog = roles
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.working = slices.Clone(e.original)
	return &e, nil
}

func (e *PermissionEditor) Granted() []models.Role {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.working)
}

// Addable is the catalog minus the working set.
func (e *PermissionEditor) Addable() []models.Role {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []models.Role
	for _, r := range e.catalog {
		if !containsRole(e.working, r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// Dirty reports whether the working set differs from the saved one.
func (e *PermissionEditor) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !slices.Equal(sortedIDs(e.original), sortedIDs(e.working))
}

func (e *PermissionEditor) Add(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if containsRole(e.working, id) {
		return false
	}
	i := slices.IndexFunc(e.catalog, func(r models.Role) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	e.working = append(e.working, e.catalog[i])
	return true
}

func (e *PermissionEditor) Remove(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.working)
	e.working = slices.DeleteFunc(e.working, func(r models.Role) bool { return r.ID == id })
	return len(e.working) != n
}

// Save sends the complete working set. The server's answer becomes the new
// saved set. On failure the granted roles are fetched again and replace both
// sets; if that fails too the edit is dropped in favour of the saved set.
func (e *PermissionEditor) Save(ctx context.Context, put func(ctx context.Context, ids []int64) ([]models.Role, error)) error {
	e.mu.RLock()
	ids := make([]int64, len(e.working))
	for i, r := range e.working {
		ids[i] = r.ID
	}
	e.mu.RUnlock()

	roles, err := put(ctx, ids)
	if err != nil {
		fresh, ferr := e.granted(ctx)
		e.mu.Lock()
		defer e.mu.Unlock()
		if ferr != nil {
			e.working = slices.Clone(e.original)
			return errors.Join(err, fmt.Errorf("failed to fetch granted roles: %w", ferr))
		}
		e.original = slices.Clone(fresh)
		e.working = slices.Clone(fresh)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.original = slices.Clone(roles)
	e.working = slices.Clone(roles)
	return nil
}

func containsRole(roles []models.Role, id int64) bool {
	return slices.ContainsFunc(roles, func(r models.Role) bool { return r.ID == id })
}

func sortedIDs(roles []models.Role) []int64 {
	ids := make([]int64, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	slices.Sort(ids)
	return ids
}
