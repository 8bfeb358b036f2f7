package console

import (
	"context"
	"errors"
	"html/template"
	"strconv"
	"sync"
	"time"

	"adminka/internal/content"
	"adminka/internal/metrics"
	"adminka/internal/models"
	"adminka/internal/optimistic"
)

var (
	ErrSubmitting = errors.New("already submitting")
	ErrPastTime   = errors.New("event time is in the past")
)

type scheduleFunc func(ctx context.Context, channelID, title string, eventTime time.Time) error

// ScheduleView is the form behind the queues and events pages: pick a
// category, one of its channels, a title and a time. A submitted
// announcement cannot be edited afterwards.
type ScheduleView struct {
	w        *Workspace
	page     string
	textOnly bool
	create   scheduleFunc

	categories optimistic.Store[models.Category]

	mu         sync.Mutex
	categoryID int64
	channels   []models.Channel
	channelID  int64
	title      string
	eventTime  time.Time
	submitting bool
}

type scheduleForm struct {
	ChannelID int64     `validate:"required"`
	Title     string    `validate:"required,max=256"`
	EventTime time.Time `validate:"required"`
}

// ScheduleForm is what the page renders.
type ScheduleForm struct {
	Categories []models.Category
	CategoryID int64
	Channels   []models.Channel
	ChannelID  int64
	Title      string
	Preview    template.HTML
	EventTime  time.Time
	Submitting bool
}

func (v *ScheduleView) Page() string {
	return v.page
}

func (v *ScheduleView) Open(ctx context.Context) {
	v.resetForm()
	v.categories.Reset()
	categories, err := v.w.backend.Categories(ctx)
	if err != nil {
		v.w.fetchFailed("categories", err)
		return
	}
	v.categories.Replace(categories)
}

func (v *ScheduleView) resetForm() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.categoryID = 0
	v.channels = nil
	v.channelID = 0
	v.title = ""
	v.eventTime = time.Time{}
}

// SelectCategory picks a category and loads its channels. Picking another
// category clears the channel.
func (v *ScheduleView) SelectCategory(ctx context.Context, categoryID int64) {
	v.mu.Lock()
	v.categoryID = categoryID
	v.channels = nil
	v.channelID = 0
	v.mu.Unlock()

	if categoryID == 0 {
		return
	}

	channels, err := v.w.backend.Channels(ctx, categoryID)
	if err != nil {
		v.w.fetchFailed("channels", err)
		return
	}
	if v.textOnly {
		channels, _ = splitText(channels)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.categoryID == categoryID {
		v.channels = channels
	}
}

func splitText(channels []models.Channel) (text, other []models.Channel) {
	for _, c := range channels {
		if c.Type == models.ChannelTypeText {
			text = append(text, c)
		} else {
			other = append(other, c)
		}
	}
	return text, other
}

func (v *ScheduleView) SelectChannel(channelID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.channels {
		if c.ID == channelID {
			v.channelID = channelID
			return nil
		}
	}
	return models.ErrNotFound
}

func (v *ScheduleView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = content.Sanitize(title)
}

// SetTime sets the event time. A time in the past clears it.
func (v *ScheduleView) SetTime(t time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.Before(time.Now()) {
		v.eventTime = time.Time{}
		return ErrPastTime
	}
	v.eventTime = t
	return nil
}

func (v *ScheduleView) Form() ScheduleForm {
	v.mu.Lock()
	defer v.mu.Unlock()
	form := ScheduleForm{
		Categories: v.categories.Items(),
		CategoryID: v.categoryID,
		Channels:   v.channels,
		ChannelID:  v.channelID,
		Title:      v.title,
		EventTime:  v.eventTime,
		Submitting: v.submitting,
	}
	if v.title != "" {
		if html, err := content.RenderMarkdown(v.title); err == nil {
			form.Preview = html
		}
	}
	return form
}

// Submit schedules the announcement in the background. On success the form
// is cleared.
func (v *ScheduleView) Submit() error {
	v.mu.Lock()
	if v.submitting {
		v.mu.Unlock()
		return ErrSubmitting
	}
	form := scheduleForm{ChannelID: v.channelID, Title: v.title, EventTime: v.eventTime}
	if err := content.Validate(form); err != nil {
		v.mu.Unlock()
		return err
	}
	v.submitting = true
	v.mu.Unlock()

	v.w.async(v.page, func(ctx context.Context) {
		err := v.create(ctx, strconv.FormatInt(form.ChannelID, 10), form.Title, form.EventTime)

		v.mu.Lock()
		v.submitting = false
		v.mu.Unlock()

		if err != nil {
			metrics.MutationsTotal.WithLabelValues("schedule", "rolled_back").Inc()
			v.w.mutationFailed("schedule", err)
			return
		}
		metrics.MutationsTotal.WithLabelValues("schedule", "confirmed").Inc()
		v.resetForm()
		v.w.Toasts.Info("Announcement scheduled")
	})
	return nil
}
