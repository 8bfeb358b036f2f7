// Package sidebar holds the right-hand action panel: which action is open on
// which item, the form rules and the permission editor.
package sidebar

import (
	"errors"
	"fmt"

	"adminka/internal/content"
	"adminka/internal/models"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRename Action = "rename"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

type Target string

const (
	TargetCategory Target = "category"
	TargetChannel  Target = "channel"
	TargetRole     Target = "role"
	TargetUser     Target = "user"
)

var (
	ErrBlankName = errors.New("name is required")
	ErrSameName  = errors.New("name is unchanged")
)

// Item is the entity the panel acts on. Parent is the owning category for
// channels.
type Item struct {
	ID     string
	Name   string
	Parent string
}

type Panel struct {
	Action Action
	Target Target
	Item   *Item
	Editor *PermissionEditor
}

// Open shows action on target and resets any previous form state.
func (p *Panel) Open(action Action, target Target, item *Item) {
	*p = Panel{Action: action, Target: target, Item: item}
}

func (p *Panel) Close() {
	*p = Panel{}
}

func (p Panel) IsOpen() bool {
	return p.Action != ""
}

func (p Panel) Is(action Action, target Target) bool {
	return p.Action == action && p.Target == target
}

// Title is the panel heading, e.g. "Rename category Math".
func (p Panel) Title() string {
	verb := content.Capitalize(string(p.Action))
	if p.Item == nil || p.Action == ActionCreate {
		return fmt.Sprintf("%s %s", verb, p.Target)
	}
	return fmt.Sprintf("%s %s %s", verb, p.Target, content.Capitalize(p.Item.Name))
}

type channelForm struct {
	Type string `validate:"required,oneof=text voice"`
}

// CheckCreate validates a create form. typ is only read for channels.
func CheckCreate(target Target, name string, typ models.ChannelType) error {
	name = content.Sanitize(name)
	if name == "" {
		return ErrBlankName
	}
	if target == TargetChannel {
		if err := content.Validate(channelForm{Type: string(typ)}); err != nil {
			return err
		}
	}
	return content.ValidateName(name)
}

// CheckRename validates a rename form against the current name.
func CheckRename(current, name string) error {
	name = content.Sanitize(name)
	if name == "" {
		return ErrBlankName
	}
	if content.SameName(current, name) {
		return ErrSameName
	}
	return content.ValidateName(name)
}
