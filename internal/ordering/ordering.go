// Package ordering turns a drag gesture into a local reorder plus the
// reposition request the backend expects.
package ordering

import (
	"slices"

	"adminka/internal/models"
)

// Move returns a copy of items with the element at from moved to index to.
// Out of range indexes return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}

// Plan is the outcome of a drop.
type Plan[T any] struct {
	// Items is the optimistic order to render right away.
	Items []T
	// ItemID is the dragged item.
	ItemID int64
	// Target is the position sent to the backend.
	Target int
	// Refetch means siblings may be renumbered and the list must be reloaded
	// after the backend confirms.
	Refetch bool
}

func indexOf[T any](items []T, id int64, key func(T) int64) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}

// PlanCategoryMove drops category activeID onto overID. The target sent is
// the index of overID.
func PlanCategoryMove(categories []models.Category, activeID, overID int64) (Plan[models.Category], bool) {
	key := func(c models.Category) int64 { return c.ID }
	from, to := indexOf(categories, activeID, key), indexOf(categories, overID, key)
	if activeID == overID || from < 0 || to < 0 {
		return Plan[models.Category]{}, false
	}
	return Plan[models.Category]{
		Items:  Move(categories, from, to),
		ItemID: activeID,
		Target: to,
	}, true
}

// PlanChannelMove drops channel activeID onto overID. Channels only move
// among channels of the same type; the target sent is the over channel's
// server position.
func PlanChannelMove(channels []models.Channel, activeID, overID int64) (Plan[models.Channel], bool) {
	key := func(c models.Channel) int64 { return c.ID }
	from, to := indexOf(channels, activeID, key), indexOf(channels, overID, key)
	if activeID == overID || from < 0 || to < 0 {
		return Plan[models.Channel]{}, false
	}
	if channels[from].Type != channels[to].Type {
		return Plan[models.Channel]{}, false
	}
	return Plan[models.Channel]{
		Items:   Move(channels, from, to),
		ItemID:  activeID,
		Target:  channels[to].Position,
		Refetch: true,
	}, true
}

// SplitByType partitions channels into text and voice, keeping order.
func SplitByType(channels []models.Channel) (text, voice []models.Channel) {
	for _, c := range channels {
		switch c.Type {
		case models.ChannelTypeText:
			text = append(text, c)
		case models.ChannelTypeVoice:
			voice = append(voice, c)
		}
	}
	return text, voice
}
