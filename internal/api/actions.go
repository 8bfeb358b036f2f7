package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"adminka/internal/console"
	"adminka/internal/models"
	"adminka/internal/sidebar"
)

func formID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(r.FormValue(key), 10, 64)
	return id, err == nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

// OpenPanelHandler opens the action panel on an item.
func (a *API) OpenPanelHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)

	action := sidebar.Action(r.FormValue("action"))
	target := sidebar.Target(r.FormValue("target"))
	switch action {
	case sidebar.ActionCreate, sidebar.ActionRename, sidebar.ActionDelete:
	default:
		badRequest(w)
		return
	}
	switch target {
	case sidebar.TargetCategory, sidebar.TargetChannel, sidebar.TargetRole, sidebar.TargetUser:
	default:
		badRequest(w)
		return
	}

	ws.OpenPanel(action, target, &sidebar.Item{
		ID:     r.FormValue("id"),
		Name:   r.FormValue("name"),
		Parent: r.FormValue("parent"),
	})
	back(w, r, console.PageHome)
}

func (a *API) ClosePanelHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	ws.ClosePanel()
	back(w, r, console.PageHome)
}

func (a *API) DismissToastHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	ws.Toasts.Dismiss(r.PathValue("id"))
	back(w, r, console.PageHome)
}

// Categories

func (a *API) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Categories.Create(r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

func (a *API) RenameCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Categories.Rename(id, r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

func (a *API) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Categories.Delete(id); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

func (a *API) ToggleCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	ws.Categories.Toggle(id)
	back(w, r, console.PageCategories)
}

// MoveCategoryHandler drops category active onto the place of over.
func (a *API) MoveCategoryHandler(w http.ResponseWriter, r *http.Request) {
	active, ok1 := formID(r, "active")
	over, ok2 := formID(r, "over")
	if !ok1 || !ok2 {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	ws.Categories.Move(active, over)
	back(w, r, console.PageCategories)
}

func (a *API) CategoryPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	// Load failures close the panel and toast on their own.
	_ = ws.Categories.OpenPermissions(r.Context(), id)
	back(w, r, console.PageCategories)
}

// Channels

func (a *API) CreateChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	typ := models.ChannelType(r.FormValue("type"))
	if err := ws.Categories.CreateChannel(id, r.FormValue("name"), typ); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

func (a *API) RenameChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok1 := pathID(r)
	category, ok2 := formID(r, "category")
	if !ok1 || !ok2 {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Categories.RenameChannel(category, id, r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

func (a *API) DeleteChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok1 := pathID(r)
	category, ok2 := formID(r, "category")
	if !ok1 || !ok2 {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Categories.DeleteChannel(category, id); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageCategories)
}

// MoveChannelHandler drops channel active onto the place of over. Drops
// across channel types are ignored.
func (a *API) MoveChannelHandler(w http.ResponseWriter, r *http.Request) {
	category, ok1 := formID(r, "category")
	active, ok2 := formID(r, "active")
	over, ok3 := formID(r, "over")
	if !ok1 || !ok2 || !ok3 {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	ws.Categories.MoveChannel(category, active, over)
	back(w, r, console.PageCategories)
}

// Permission editor

func (a *API) GrantRoleHandler(w http.ResponseWriter, r *http.Request) {
	a.editRoles(w, r, (*console.Workspace).GrantRole)
}

func (a *API) RevokeRoleHandler(w http.ResponseWriter, r *http.Request) {
	a.editRoles(w, r, (*console.Workspace).RevokeRole)
}

func (a *API) editRoles(w http.ResponseWriter, r *http.Request, edit func(*console.Workspace, int64) error) {
	role, ok := formID(r, "role")
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := edit(ws, role); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageHome)
}

// SavePermissionsHandler sends the editor's role list for the item the
// panel is open on.
func (a *API) SavePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	panel := ws.Panel()
	if panel.Editor == nil || panel.Item == nil {
		reject(ws, console.ErrNoEditor)
		back(w, r, console.PageHome)
		return
	}

	switch panel.Target {
	case sidebar.TargetCategory:
		id, err := strconv.ParseInt(panel.Item.ID, 10, 64)
		if err != nil {
			badRequest(w)
			return
		}
		// Save failures are toasted by the workspace.
		_ = ws.Categories.SavePermissions(r.Context(), id)
	case sidebar.TargetUser:
		_ = ws.Users.SaveRoles(r.Context(), panel.Item.ID)
	default:
		badRequest(w)
		return
	}
	back(w, r, console.PageHome)
}

// Roles

func (a *API) CreateRoleHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Roles.Create(r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageRoles)
}

func (a *API) RenameRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Roles.Rename(id, r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageRoles)
}

func (a *API) DeleteRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w)
		return
	}
	ws, _ := a.workspace(r)
	if err := ws.Roles.Delete(id); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageRoles)
}

// Users

func (a *API) RenameUserHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Users.Rename(r.PathValue("id"), r.FormValue("name")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageUsers)
}

func (a *API) KickUserHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Users.Kick(r.PathValue("id")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageUsers)
}

func (a *API) UserRolesHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Users.OpenRoles(r.Context(), r.PathValue("id")); errors.Is(err, models.ErrNotFound) {
		reject(ws, err)
	}
	back(w, r, console.PageUsers)
}

// Queues and events

// ScheduleCategoryHandler picks the category whose channels the form offers.
func (a *API) ScheduleCategoryHandler(view func(*console.Workspace) *console.ScheduleView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _ := a.workspace(r)
		sv := view(ws)
		id, _ := formID(r, "category")
		sv.SelectCategory(r.Context(), id)
		back(w, r, sv.Page())
	}
}

// ScheduleHandler stores the form fields and, when asked, submits them.
func (a *API) ScheduleHandler(view func(*console.Workspace) *console.ScheduleView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _ := a.workspace(r)
		sv := view(ws)

		if channel, ok := formID(r, "channel"); ok {
			if err := sv.SelectChannel(channel); err != nil {
				reject(ws, err)
			}
		}
		sv.SetTitle(r.FormValue("title"))
		if raw := r.FormValue("time"); raw != "" {
			t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
			if err != nil {
				reject(ws, err)
			} else if err := sv.SetTime(t); err != nil {
				reject(ws, err)
			}
		}

		if r.FormValue("intent") == "submit" {
			if err := sv.Submit(); err != nil {
				reject(ws, err)
			}
		}
		back(w, r, sv.Page())
	}
}

// Settings

func (a *API) LanguageHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	if err := ws.Settings.SetLanguage(r.FormValue("language")); err != nil {
		reject(ws, err)
	}
	back(w, r, console.PageSettings)
}

func (a *API) RegistrationHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	ws.Settings.CreateRegistrationMessage(r.FormValue("channel"))
	back(w, r, console.PageSettings)
}

func (a *API) StaffCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	ws.Settings.SetStaffCategory(r.FormValue("category"))
	back(w, r, console.PageSettings)
}

func (a *API) StaffInfoHandler(w http.ResponseWriter, r *http.Request) {
	ws, _ := a.workspace(r)
	ws.Settings.CreateStaffInfoMessage(r.FormValue("channel"))
	back(w, r, console.PageSettings)
}
