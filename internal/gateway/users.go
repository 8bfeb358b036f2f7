package gateway

import (
	"context"
	"net/http"

	"adminka/internal/models"
)

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	return do[[]models.User](ctx, c, "get_users", http.MethodGet, endpoint("users"), nil)
}

// User looks up the application user by the identity provider's account id.
func (c *Client) User(ctx context.Context, providerID string) (models.User, error) {
	return do[models.User](ctx, c, "get_user", http.MethodGet, endpoint("users", providerID), nil)
}

func (c *Client) RenameUser(ctx context.Context, id, name string) ([]models.User, error) {
	return do[[]models.User](ctx, c, "rename_user", http.MethodPatch, endpoint("users", id, "rename", name), nil)
}

// KickUser removes the user from the server and returns the remaining users.
func (c *Client) KickUser(ctx context.Context, id string) ([]models.User, error) {
	return do[[]models.User](ctx, c, "kick_user", http.MethodDelete, endpoint("users", id), nil)
}

func (c *Client) UserRoles(ctx context.Context, id string) ([]models.Role, error) {
	return do[[]models.Role](ctx, c, "get_user_roles", http.MethodGet, endpoint("users", id, "roles"), nil)
}

func (c *Client) EditUserRoles(ctx context.Context, id string, roleIDs []int64) ([]models.Role, error) {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	return do[[]models.Role](ctx, c, "edit_user_roles", http.MethodPut, endpoint("users", id, "roles"), roleIDs)
}
