package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adminka/internal/models"
	"adminka/internal/optimistic"
)

// LogsView is the read-only audit log page.
type LogsView struct {
	w     *Workspace
	store optimistic.Store[models.LogEntry]
	list

	rangeMu  sync.Mutex
	from, to time.Time
}

func (v *LogsView) Open(ctx context.Context) {
	v.reset()
	v.store.Reset()
	v.SetRange(time.Time{}, time.Time{})
	entries, err := v.w.backend.Logs(ctx)
	if err != nil {
		v.w.fetchFailed("logs", err)
		return
	}
	v.store.Replace(entries)
}

// SetRange limits the log to the days from..to, both inclusive. The range
// only applies when both ends are set. Changing it goes back to page one.
func (v *LogsView) SetRange(from, to time.Time) {
	v.rangeMu.Lock()
	v.from, v.to = from, to
	v.rangeMu.Unlock()
	v.SetPage(1)
}

func (v *LogsView) Range() (time.Time, time.Time) {
	v.rangeMu.Lock()
	defer v.rangeMu.Unlock()
	return v.from, v.to
}

// Page returns the matching entries in the order the backend sent them.
func (v *LogsView) Page() Paged[models.LogEntry] {
	filter, page := v.state()
	from, to := v.Range()

	var matched []models.LogEntry
	for _, e := range v.store.Items() {
		if !inRange(e.EventTime, from, to) {
			continue
		}
		if filter != "" && !e.Matches(filter) {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(v.store.Loaded(), filter, page, LogsPageSize, matched)
}

func inRange(t, from, to time.Time) bool {
	if from.IsZero() || to.IsZero() {
		return true
	}
	start := startOfDay(from)
	end := startOfDay(to).AddDate(0, 0, 1)
	return !t.Before(start) && t.Before(end)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// When renders an event time relative to now, the way the log lists it.
func When(t, now time.Time) string {
	t = t.In(now.Location())
	clock := t.Format("15:04")
	days := int(startOfDay(now).Sub(startOfDay(t)).Round(24*time.Hour) / (24 * time.Hour))
	switch {
	case days == 0:
		return "Today at " + clock
	case days == 1:
		return "Yesterday at " + clock
	case days == 2:
		return "2 days ago at " + clock
	case days > 2 && days <= 7:
		return fmt.Sprintf("Last %s at %s", t.Weekday(), clock)
	default:
		return clock + " " + t.Format("02.01.2006")
	}
}
