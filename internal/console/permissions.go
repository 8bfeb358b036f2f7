package console

import (
	"context"
	"errors"

	"adminka/internal/metrics"
	"adminka/internal/models"
	"adminka/internal/sidebar"
)

var ErrNoEditor = errors.New("permission editor is not open")

// openPermissions opens the edit panel for item and loads its editor. On
// failure the panel is closed again and a toast explains why.
func (w *Workspace) openPermissions(ctx context.Context, target sidebar.Target, item *sidebar.Item, granted sidebar.RolesFetch) error {
	w.OpenPanel(sidebar.ActionEdit, target, item)

	editor, err := sidebar.LoadPermissions(ctx, granted, w.backend.EditableRoles)
	if err != nil {
		w.ClosePanel()
		w.fetchFailed("permissions", err)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// The panel may have moved on while loading.
	if w.panel.Is(sidebar.ActionEdit, target) && w.panel.Item == item {
		w.panel.Editor = editor
	}
	return nil
}

func (w *Workspace) editor() (*sidebar.PermissionEditor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.panel.Editor == nil {
		return nil, ErrNoEditor
	}
	return w.panel.Editor, nil
}

func (w *Workspace) GrantRole(id int64) error {
	e, err := w.editor()
	if err != nil {
		return err
	}
	e.Add(id)
	return nil
}

func (w *Workspace) RevokeRole(id int64) error {
	e, err := w.editor()
	if err != nil {
		return err
	}
	e.Remove(id)
	return nil
}

// savePermissions sends the editor's full role list. Nothing is sent when
// the list is unchanged.
func (w *Workspace) savePermissions(ctx context.Context, put func(ctx context.Context, ids []int64) ([]models.Role, error)) error {
	e, err := w.editor()
	if err != nil {
		return err
	}
	if !e.Dirty() {
		return nil
	}
	if err := e.Save(ctx, put); err != nil {
		metrics.MutationsTotal.WithLabelValues("permissions", "rolled_back").Inc()
		w.mutationFailed("permissions", err)
		return err
	}
	metrics.MutationsTotal.WithLabelValues("permissions", "confirmed").Inc()
	w.ClosePanel()
	return nil
}
