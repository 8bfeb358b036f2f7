package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// StaffGroup is the only user group allowed into the console.
const StaffGroup = "staff"

type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

func (t ChannelType) Valid() bool {
	return t == ChannelTypeText || t == ChannelTypeVoice
}

// Category is a top-level container of channels.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c Category) DisplayName() string { return c.Name }

// Channel belongs to the category it was fetched for.
type Channel struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Type     ChannelType `json:"type"`
	Position int         `json:"position"` // Server assigned, dense per (category, type)
}

func (c Channel) DisplayName() string { return c.Name }

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r Role) DisplayName() string { return r.Name }

// User is the application-level user record, not the identity provider account.
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Group   *string `json:"group,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

func (u User) DisplayName() string { return u.Name }

// IsStaff reports whether the user may enter the console.
func (u User) IsStaff() bool {
	return u.Group != nil && *u.Group == StaffGroup
}

// LogEntry is an append-only audit record.
type LogEntry struct {
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Action     string    `json:"action"`
	EventTime  time.Time `json:"event_time"`
}

// Matches reports whether any string field contains term, ignoring case.
func (l LogEntry) Matches(term string) bool {
	term = strings.ToLower(term)
	for _, v := range []string{l.UserName, l.UserAvatar, l.Action} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// QueueEvent is a scheduled announcement; created once, never edited.
type QueueEvent struct {
	ChannelID string    `json:"channel_id"`
	MessageID *string   `json:"message_id,omitempty"`
	Title     string    `json:"title"`
	EventTime time.Time `json:"event_time"`
}

type RegistrationConfig struct {
	ChannelID *string `json:"channel_id"`
	MessageID *string `json:"message_id"`
}

type StaffConfig struct {
	CategoryID *string `json:"category_id"`
	ChannelID  *string `json:"channel_id"`
	MessageID  *string `json:"message_id"`
}

// ServerConfig is the per-server singleton; each section is set independently.
type ServerConfig struct {
	Language     string             `json:"language"`
	Registration RegistrationConfig `json:"registration"`
	Staff        StaffConfig        `json:"staff"`
}

// Envelope is the uniform backend response wrapper.
type Envelope[T any] struct {
	Data    T       `json:"data"`
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

// Languages supported by the server configuration.
var Languages = []string{"uk", "en"}

type ServerMessageType string

const (
	// ServerMessageTypeRefresh tells open tabs that a background call resolved.
	ServerMessageTypeRefresh   ServerMessageType = "refresh"
	ServerMessageTypeSignedOut ServerMessageType = "signed_out"
	ServerMessageTypePong      ServerMessageType = "pong"
)

// ServerMessage is pushed to the browser over the live-update socket.
type ServerMessage struct {
	Type ServerMessageType `json:"type"`
	// Page is the console path whose state changed, empty for all pages.
	Page string `json:"page,omitempty"`
}

type ClientMessageType string

const ClientMessageTypePing ClientMessageType = "ping"

type ClientMessage struct {
	Type ClientMessageType `json:"type"`
}
