package gateway

import (
	"context"
	"net/http"

	"adminka/internal/models"
)

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return do[[]models.Category](ctx, c, "get_categories", http.MethodGet, endpoint("categories"), nil)
}

func (c *Client) CreateCategory(ctx context.Context, name string) ([]models.Category, error) {
	return do[[]models.Category](ctx, c, "create_category", http.MethodPost, endpoint("categories", name), nil)
}

func (c *Client) RenameCategory(ctx context.Context, id int64, name string) ([]models.Category, error) {
	return do[[]models.Category](ctx, c, "rename_category", http.MethodPatch, endpoint("categories", id, "rename", name), nil)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) ([]models.Category, error) {
	return do[[]models.Category](ctx, c, "delete_category", http.MethodDelete, endpoint("categories", id), nil)
}

func (c *Client) UpdateCategoryPosition(ctx context.Context, id int64, position int) ([]models.Category, error) {
	return do[[]models.Category](ctx, c, "update_category_position", http.MethodPatch, endpoint("categories", id, "position", position), nil)
}

// CategoryAccessRoles returns the roles currently granted access to a category.
func (c *Client) CategoryAccessRoles(ctx context.Context, id int64) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "get_category_permissions", http.MethodGet, endpoint("categories", id, "permissions"), nil)
}

// EditCategoryPermissions replaces the category's access list with roleIDs.
func (c *Client) EditCategoryPermissions(ctx context.Context, id int64, roleIDs []int64) ([]models.Role, error) {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	return do[[]models.Role](ctx, c, "edit_category_permissions", http.MethodPut, endpoint("categories", id, "permissions"), roleIDs)
}
