package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"adminka/internal/models"
)

func (c *Client) Logs(ctx context.Context) ([]models.LogEntry, error) {
	return do[[]models.LogEntry](ctx, c, "get_logs", http.MethodGet, endpoint("logs"), nil)
}

type queueRequest struct {
	ChannelID string    `json:"channel_id"`
	Title     string    `json:"title"`
	EventTime time.Time `json:"event_time"`
}

// CreateQueueMessage schedules a queue announcement in a text channel.
func (c *Client) CreateQueueMessage(ctx context.Context, channelID, title string, eventTime time.Time) error {
	_, err := do[json.RawMessage](ctx, c, "create_queue", http.MethodPost, endpoint("queue"), queueRequest{
		ChannelID: channelID,
		Title:     title,
		EventTime: eventTime.UTC(),
	})
	return err
}

// CreateEvent schedules an event announcement in a text channel.
func (c *Client) CreateEvent(ctx context.Context, channelID, title string, eventTime time.Time) error {
	_, err := do[json.RawMessage](ctx, c, "create_event", http.MethodPost, endpoint("events"), queueRequest{
		ChannelID: channelID,
		Title:     title,
		EventTime: eventTime.UTC(),
	})
	return err
}
