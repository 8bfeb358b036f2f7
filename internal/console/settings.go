package console

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"adminka/internal/metrics"
	"adminka/internal/models"

	"golang.org/x/sync/errgroup"
)

// SettingsView is the server settings page. Each section is set on its own
// and the config is reloaded after every call.
type SettingsView struct {
	w *Workspace

	mu            sync.Mutex
	loaded        bool
	config        models.ServerConfig
	textChannels  []models.Channel
	categories    []models.Category
	staffChannels []models.Channel
}

type SettingsPage struct {
	Loaded        bool
	Config        models.ServerConfig
	Languages     []string
	TextChannels  []models.Channel
	Categories    []models.Category
	StaffChannels []models.Channel
}

// Open loads the config and the pickers' options concurrently. Each failed
// fetch shows its own toast.
func (v *SettingsView) Open(ctx context.Context) {
	v.mu.Lock()
	v.loaded = false
	v.config = models.ServerConfig{}
	v.textChannels, v.categories, v.staffChannels = nil, nil, nil
	v.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		v.loadConfig(ctx)
		return nil
	})
	g.Go(func() error {
		channels, err := v.w.backend.NonCategorizedTextChannels(ctx)
		if err != nil {
			v.w.fetchFailed("channels", err)
			return nil
		}
		v.mu.Lock()
		v.textChannels = channels
		v.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		categories, err := v.w.backend.Categories(ctx)
		if err != nil {
			v.w.fetchFailed("categories", err)
			return nil
		}
		v.mu.Lock()
		v.categories = categories
		v.mu.Unlock()
		return nil
	})
	_ = g.Wait()
}

// loadConfig reloads the config and the channels of the staff category.
func (v *SettingsView) loadConfig(ctx context.Context) {
	config, err := v.w.backend.ServerConfig(ctx)
	if err != nil {
		v.w.fetchFailed("server config", err)
		return
	}

	var staff []models.Channel
	if id := config.Staff.CategoryID; id != nil {
		if categoryID, err := strconv.ParseInt(*id, 10, 64); err == nil {
			channels, err := v.w.backend.Channels(ctx, categoryID)
			if err != nil {
				v.w.fetchFailed("channels", err)
			}
			staff, _ = splitText(channels)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.config = config
	v.staffChannels = staff
}

func (v *SettingsView) Page() SettingsPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SettingsPage{
		Loaded:        v.loaded,
		Config:        v.config,
		Languages:     models.Languages,
		TextChannels:  slices.Clone(v.textChannels),
		Categories:    slices.Clone(v.categories),
		StaffChannels: slices.Clone(v.staffChannels),
	}
}

func (v *SettingsView) apply(kind string, call func(ctx context.Context) error) {
	v.w.async(PageSettings, func(ctx context.Context) {
		if err := call(ctx); err != nil {
			metrics.MutationsTotal.WithLabelValues(kind, "rolled_back").Inc()
			v.w.mutationFailed(kind, err)
		} else {
			metrics.MutationsTotal.WithLabelValues(kind, "confirmed").Inc()
		}
		v.loadConfig(ctx)
	})
}

func (v *SettingsView) SetLanguage(language string) error {
	if !slices.Contains(models.Languages, language) {
		return models.ErrNotFound
	}
	v.mu.Lock()
	v.config.Language = language
	v.mu.Unlock()

	v.apply("language", func(ctx context.Context) error {
		return v.w.backend.UpdateServerLanguage(ctx, language)
	})
	return nil
}

// CreateRegistrationMessage posts the registration prompt into channelID,
// or into a new channel when channelID is empty.
func (v *SettingsView) CreateRegistrationMessage(channelID string) {
	v.apply("registration", func(ctx context.Context) error {
		return v.w.backend.CreateRegistrationMessage(ctx, channelID)
	})
}

func (v *SettingsView) SetStaffCategory(categoryID string) {
	v.apply("staff_category", func(ctx context.Context) error {
		return v.w.backend.SetStaffCategory(ctx, categoryID)
	})
}

func (v *SettingsView) CreateStaffInfoMessage(channelID string) {
	v.apply("staff_info", func(ctx context.Context) error {
		return v.w.backend.CreateStaffInfoMessage(ctx, channelID)
	})
}
