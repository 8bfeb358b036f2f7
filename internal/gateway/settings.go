package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"adminka/internal/models"
)

func (c *Client) ServerConfig(ctx context.Context) (models.ServerConfig, error) {
	return do[models.ServerConfig](ctx, c, "get_server_config", http.MethodGet, endpoint("settings", "config"), nil)
}

func (c *Client) UpdateServerLanguage(ctx context.Context, language string) error {
	_, err := do[json.RawMessage](ctx, c, "update_language", http.MethodPut, endpoint("settings", "language"),
		map[string]string{"language": language})
	return err
}

// optionalID builds a body carrying id under key. An empty id asks the
// backend to create a fresh channel or category.
func optionalID(key, id string) map[string]string {
	body := map[string]string{}
	if id != "" {
		body[key] = id
	}
	return body
}

// CreateRegistrationMessage posts the registration prompt into channelID.
func (c *Client) CreateRegistrationMessage(ctx context.Context, channelID string) error {
	_, err := do[json.RawMessage](ctx, c, "create_registration_message", http.MethodPost, endpoint("settings", "registration"),
		optionalID("channel_id", channelID))
	return err
}

func (c *Client) SetStaffCategory(ctx context.Context, categoryID string) error {
	_, err := do[json.RawMessage](ctx, c, "set_staff_category", http.MethodPost, endpoint("settings", "staff", "category"),
		optionalID("category_id", categoryID))
	return err
}

func (c *Client) CreateStaffInfoMessage(ctx context.Context, channelID string) error {
	_, err := do[json.RawMessage](ctx, c, "create_staff_info_message", http.MethodPost, endpoint("settings", "staff", "info"),
		optionalID("channel_id", channelID))
	return err
}
