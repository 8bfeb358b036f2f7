package console

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	MutationToastTTL = 10 * time.Second
	FetchToastTTL    = 5 * time.Second
	InfoToastTTL     = 5 * time.Second
)

type ToastKind string

const (
	ToastError ToastKind = "error"
	ToastInfo  ToastKind = "info"
)

type Toast struct {
	ID      string
	Kind    ToastKind
	Message string
	Expires time.Time
}

// Toasts is a session's notification queue, newest last.
type Toasts struct {
	mu    sync.Mutex
	items []Toast
	now   func() time.Time
}

func NewToasts() *Toasts {
	return &Toasts{now: time.Now}
}

func (t *Toasts) push(kind ToastKind, message string, ttl time.Duration) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	toast := Toast{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Expires: t.now().Add(ttl),
	}
	t.items = append(t.items, toast)
	return toast.ID
}

func (t *Toasts) Error(message string, ttl time.Duration) string {
	return t.push(ToastError, message, ttl)
}

func (t *Toasts) Info(message string) string {
	return t.push(ToastInfo, message, InfoToastTTL)
}

// Active prunes expired toasts and returns the rest.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.items = slices.DeleteFunc(t.items, func(toast Toast) bool {
		return !toast.Expires.After(now)
	})
	return slices.Clone(t.items)
}

func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = slices.DeleteFunc(t.items, func(toast Toast) bool {
		return toast.ID == id
	})
}
