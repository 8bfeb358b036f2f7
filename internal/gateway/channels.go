package gateway

import (
	"context"
	"fmt"
	"net/http"

	"adminka/internal/models"
)

func (c *Client) Channels(ctx context.Context, categoryID int64) ([]models.Channel, error) {
	return do[[]models.Channel](ctx, c, "get_channels", http.MethodGet, endpoint("channels", categoryID), nil)
}

// CreateChannel rejects unsupported channel types before sending anything.
func (c *Client) CreateChannel(ctx context.Context, categoryID int64, name string, typ models.ChannelType) ([]models.Channel, error) {
	if !typ.Valid() {
		return nil, &ClientError{Message: fmt.Sprintf("unsupported channel type %q", typ)}
	}
	return do[[]models.Channel](ctx, c, "create_channel", http.MethodPost, endpoint("channels", categoryID, "channel_name", name, string(typ)), nil)
}

func (c *Client) RenameChannel(ctx context.Context, id int64, name string) ([]models.Channel, error) {
	return do[[]models.Channel](ctx, c, "rename_channel", http.MethodPatch, endpoint("channels", id, "rename", name), nil)
}

func (c *Client) DeleteChannel(ctx context.Context, id int64) ([]models.Channel, error) {
	return do[[]models.Channel](ctx, c, "delete_channel", http.MethodDelete, endpoint("channels", id), nil)
}

func (c *Client) UpdateChannelPosition(ctx context.Context, id int64, position int) ([]models.Channel, error) {
	return do[[]models.Channel](ctx, c, "update_channel_position", http.MethodPatch, endpoint("channels", id, "position", position), nil)
}

// NonCategorizedTextChannels lists text channels outside any category.
func (c *Client) NonCategorizedTextChannels(ctx context.Context) ([]models.Channel, error) {
	return do[[]models.Channel](ctx, c, "get_non_categorized_channels", http.MethodGet, endpoint("channels", "non-categorized", "text"), nil)
}
