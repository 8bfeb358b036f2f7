package console

import (
	"context"
	"strconv"
	"sync"
	"time"

	"adminka/internal/content"
	"adminka/internal/models"
	"adminka/internal/optimistic"
	"adminka/internal/ordering"
	"adminka/internal/sidebar"
)

// CategoriesView is the categories page: the category list and, per
// expanded category, its lazily loaded channels.
type CategoriesView struct {
	w     *Workspace
	store optimistic.Store[models.Category]

	mu     sync.Mutex
	groups map[int64]*channelGroup
	gen    uint64
	filter string
}

type channelGroup struct {
	open    bool
	loading bool
	// gen stamps the latest expand fetch; older responses are discarded.
	gen   uint64
	store optimistic.Store[models.Channel]
}

type CategoryRow struct {
	Category models.Category
	Open     bool
	Loading  bool
	Text     []models.Channel
	Voice    []models.Channel
}

type CategoriesPage struct {
	Loaded bool
	Filter string
	Rows   []CategoryRow
}

// Open resets the page and loads the categories.
func (v *CategoriesView) Open(ctx context.Context) {
	v.mu.Lock()
	v.groups = make(map[int64]*channelGroup)
	v.filter = ""
	v.mu.Unlock()

	v.store.Reset()
	categories, err := v.w.backend.Categories(ctx)
	if err != nil {
		v.w.fetchFailed("categories", err)
		return
	}
	v.store.Replace(categories)
}

func (v *CategoriesView) Loaded() bool {
	return v.store.Loaded()
}

func (v *CategoriesView) SetFilter(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = term
}

func (v *CategoriesView) Page() CategoriesPage {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := CategoriesPage{Loaded: v.store.Loaded(), Filter: v.filter}
	for _, c := range v.store.Items() {
		if !content.Contains(c.DisplayName(), v.filter) {
			continue
		}
		row := CategoryRow{Category: c}
		if g, ok := v.groups[c.ID]; ok {
			row.Open = g.open
			row.Loading = g.loading
			row.Text, row.Voice = ordering.SplitByType(g.store.Items())
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// Channels returns the cached channels of a category.
func (v *CategoriesView) Channels(categoryID int64) []models.Channel {
	v.mu.Lock()
	defer v.mu.Unlock()
	if g, ok := v.groups[categoryID]; ok {
		return g.store.Items()
	}
	return nil
}

// Toggle expands or collapses a category. The first expand fetches its
// channels in the background; later expands reuse the cache.
func (v *CategoriesView) Toggle(categoryID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.groups == nil {
		v.groups = make(map[int64]*channelGroup)
	}
	g, ok := v.groups[categoryID]
	switch {
	case ok && g.open:
		g.open = false
		return
	case ok && g.store.Loaded():
		g.open = true
		return
	case !ok:
		g = &channelGroup{}
		v.groups[categoryID] = g
	}

	g.open = true
	g.loading = true
	v.gen++
	stamp := v.gen
	g.gen = stamp

	v.w.async(PageCategories, func(ctx context.Context) {
		channels, err := v.w.backend.Channels(ctx, categoryID)

		v.mu.Lock()
		defer v.mu.Unlock()
		if cur, ok := v.groups[categoryID]; !ok || cur != g || cur.gen != stamp {
			return
		}
		g.loading = false
		if err != nil {
			v.w.fetchFailed("channels", err)
			return
		}
		g.store.Replace(channels)
	})
}

// group returns the channel group of a category, creating an open one.
func (v *CategoriesView) group(categoryID int64) *channelGroup {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.groups == nil {
		v.groups = make(map[int64]*channelGroup)
	}
	g, ok := v.groups[categoryID]
	if !ok {
		g = &channelGroup{open: true}
		v.groups[categoryID] = g
	}
	return g
}

func (v *CategoriesView) find(id int64) (models.Category, bool) {
	for _, c := range v.store.Items() {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

func (v *CategoriesView) Create(name string) error {
	name = content.Sanitize(name)
	if err := sidebar.CheckCreate(sidebar.TargetCategory, name, ""); err != nil {
		return err
	}
	tempID := time.Now().UnixMilli()
	mutate(v.w, PageCategories, "category", &v.store, optimistic.Mutation[models.Category]{
		Apply: func(items []models.Category) []models.Category {
			return append(items, models.Category{ID: tempID, Name: name})
		},
		Call: func(ctx context.Context) ([]models.Category, error) {
			return v.w.backend.CreateCategory(ctx, name)
		},
		Refetch: v.w.backend.Categories,
	})
	return nil
}

func (v *CategoriesView) Rename(id int64, name string) error {
	current, ok := v.find(id)
	if !ok {
		return models.ErrNotFound
	}
	name = content.Sanitize(name)
	if err := sidebar.CheckRename(current.Name, name); err != nil {
		return err
	}
	mutate(v.w, PageCategories, "category", &v.store, optimistic.Mutation[models.Category]{
		Apply: func(items []models.Category) []models.Category {
			for i := range items {
				if items[i].ID == id {
					items[i].Name = name
				}
			}
			return items
		},
		Call: func(ctx context.Context) ([]models.Category, error) {
			return v.w.backend.RenameCategory(ctx, id, name)
		},
		Refetch: v.w.backend.Categories,
	})
	return nil
}

func (v *CategoriesView) Delete(id int64) error {
	if _, ok := v.find(id); !ok {
		return models.ErrNotFound
	}
	mutate(v.w, PageCategories, "category", &v.store, optimistic.Mutation[models.Category]{
		Apply: func(items []models.Category) []models.Category {
			return removeByID(items, func(c models.Category) bool { return c.ID == id })
		},
		Call: func(ctx context.Context) ([]models.Category, error) {
			return v.w.backend.DeleteCategory(ctx, id)
		},
		Refetch: v.w.backend.Categories,
	})

	v.mu.Lock()
	delete(v.groups, id)
	v.mu.Unlock()
	return nil
}

// Move drops category activeID onto overID. Dropping on itself or on an
// unknown id does nothing.
func (v *CategoriesView) Move(activeID, overID int64) bool {
	plan, ok := ordering.PlanCategoryMove(v.store.Items(), activeID, overID)
	if !ok {
		return false
	}
	mutate(v.w, PageCategories, "category_position", &v.store, optimistic.Mutation[models.Category]{
		Apply: func([]models.Category) []models.Category { return plan.Items },
		Call: func(ctx context.Context) ([]models.Category, error) {
			return v.w.backend.UpdateCategoryPosition(ctx, plan.ItemID, plan.Target)
		},
		Refetch:          v.w.backend.Categories,
		RefetchOnSuccess: plan.Refetch,
		KeepLocal:        true,
	})
	return true
}

func (v *CategoriesView) channelsFetch(categoryID int64) optimistic.Fetch[models.Channel] {
	return func(ctx context.Context) ([]models.Channel, error) {
		return v.w.backend.Channels(ctx, categoryID)
	}
}

func (v *CategoriesView) findChannel(categoryID, id int64) (models.Channel, bool) {
	for _, c := range v.Channels(categoryID) {
		if c.ID == id {
			return c, true
		}
	}
	return models.Channel{}, false
}

func (v *CategoriesView) CreateChannel(categoryID int64, name string, typ models.ChannelType) error {
	name = content.Sanitize(name)
	if err := sidebar.CheckCreate(sidebar.TargetChannel, name, typ); err != nil {
		return err
	}
	g := v.group(categoryID)
	tempID := time.Now().UnixMilli()
	mutate(v.w, PageCategories, "channel", &g.store, optimistic.Mutation[models.Channel]{
		Apply: func(items []models.Channel) []models.Channel {
			position := 0
			for _, c := range items {
				if c.Type == typ {
					position++
				}
			}
			return append(items, models.Channel{ID: tempID, Name: name, Type: typ, Position: position})
		},
		Call: func(ctx context.Context) ([]models.Channel, error) {
			return v.w.backend.CreateChannel(ctx, categoryID, name, typ)
		},
		Refetch: v.channelsFetch(categoryID),
	})
	return nil
}

func (v *CategoriesView) RenameChannel(categoryID, id int64, name string) error {
	current, ok := v.findChannel(categoryID, id)
	if !ok {
		return models.ErrNotFound
	}
	name = content.Sanitize(name)
	if err := sidebar.CheckRename(current.Name, name); err != nil {
		return err
	}
	g := v.group(categoryID)
	mutate(v.w, PageCategories, "channel", &g.store, optimistic.Mutation[models.Channel]{
		Apply: func(items []models.Channel) []models.Channel {
			for i := range items {
				if items[i].ID == id {
					items[i].Name = name
				}
			}
			return items
		},
		Call: func(ctx context.Context) ([]models.Channel, error) {
			return v.w.backend.RenameChannel(ctx, id, name)
		},
		Refetch: v.channelsFetch(categoryID),
	})
	return nil
}

func (v *CategoriesView) DeleteChannel(categoryID, id int64) error {
	if _, ok := v.findChannel(categoryID, id); !ok {
		return models.ErrNotFound
	}
	g := v.group(categoryID)
	mutate(v.w, PageCategories, "channel", &g.store, optimistic.Mutation[models.Channel]{
		Apply: func(items []models.Channel) []models.Channel {
			return removeByID(items, func(c models.Channel) bool { return c.ID == id })
		},
		Call: func(ctx context.Context) ([]models.Channel, error) {
			return v.w.backend.DeleteChannel(ctx, id)
		},
		Refetch: v.channelsFetch(categoryID),
	})
	return nil
}

// MoveChannel drops channel activeID onto overID within a category. Channels
// never move between the text and voice sections.
func (v *CategoriesView) MoveChannel(categoryID, activeID, overID int64) bool {
	plan, ok := ordering.PlanChannelMove(v.Channels(categoryID), activeID, overID)
	if !ok {
		return false
	}
	g := v.group(categoryID)
	mutate(v.w, PageCategories, "channel_position", &g.store, optimistic.Mutation[models.Channel]{
		Apply: func([]models.Channel) []models.Channel { return plan.Items },
		Call: func(ctx context.Context) ([]models.Channel, error) {
			return v.w.backend.UpdateChannelPosition(ctx, plan.ItemID, plan.Target)
		},
		Refetch:          v.channelsFetch(categoryID),
		RefetchOnSuccess: plan.Refetch,
		KeepLocal:        true,
	})
	return true
}

// OpenPermissions opens the permission editor of a category.
func (v *CategoriesView) OpenPermissions(ctx context.Context, id int64) error {
	c, ok := v.find(id)
	if !ok {
		return models.ErrNotFound
	}
	return v.w.openPermissions(ctx, sidebar.TargetCategory,
		&sidebar.Item{ID: strconv.FormatInt(id, 10), Name: c.Name},
		func(ctx context.Context) ([]models.Role, error) {
			return v.w.backend.CategoryAccessRoles(ctx, id)
		})
}

func (v *CategoriesView) SavePermissions(ctx context.Context, id int64) error {
	return v.w.savePermissions(ctx, func(ctx context.Context, ids []int64) ([]models.Role, error) {
		return v.w.backend.EditCategoryPermissions(ctx, id, ids)
	})
}

func removeByID[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, v := range items {
		if !match(v) {
			out = append(out, v)
		}
	}
	return out
}
