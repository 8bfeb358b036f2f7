package gateway

import (
	"context"
	"net/http"

	"adminka/internal/models"
)

func (c *Client) Roles(ctx context.Context) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "get_roles", http.MethodGet, endpoint("roles"), nil)
}

// EditableRoles excludes roles the bot cannot manage.
func (c *Client) EditableRoles(ctx context.Context) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "get_editable_roles", http.MethodGet, endpoint("roles", "editable"), nil)
}

func (c *Client) CreateRole(ctx context.Context, name string) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "create_role", http.MethodPost, endpoint("roles", name), nil)
}

func (c *Client) RenameRole(ctx context.Context, id int64, name string) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "rename_role", http.MethodPatch, endpoint("roles", id, "rename", name), nil)
}

func (c *Client) DeleteRole(ctx context.Context, id int64) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "delete_role", http.MethodDelete, endpoint("roles", id), nil)
}
