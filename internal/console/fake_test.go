package console

import (
	"context"
	"slices"
	"sync"
	"time"

	"adminka/internal/gateway"
	"adminka/internal/models"
)

// fakeBackend is an in-memory backend. Calls named in fail return that
// error; calls named in gates wait until the gate is closed.
type fakeBackend struct {
	mu         sync.Mutex
	categories []models.Category
	channels   map[int64][]models.Channel
	roles      []models.Role
	granted    map[string][]models.Role
	users      []models.User
	logs       []models.LogEntry
	config     models.ServerConfig
	scheduled  []string

	fail  map[string]error
	gates map[string]chan struct{}
	calls map[string]int

	onChannels func(call int, categoryID int64) ([]models.Channel, error)
	// moveReply, when set, is answered to category moves instead of the
	// reordered list.
	moveReply []models.Category
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		channels: make(map[int64][]models.Channel),
		granted:  make(map[string][]models.Role),
		fail:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) call(name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate := f.gates[name]
	err := f.fail[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func (f *fakeBackend) failWith(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func rejected(msg string) error {
	return &gateway.APIError{Code: 400, Message: msg}
}

func (f *fakeBackend) Categories(ctx context.Context) ([]models.Category, error) {
	if err := f.call("Categories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.categories), nil
}

func (f *fakeBackend) CreateCategory(ctx context.Context, name string) ([]models.Category, error) {
	if err := f.call("CreateCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, models.Category{ID: int64(100 + len(f.categories)), Name: name})
	return slices.Clone(f.categories), nil
}

func (f *fakeBackend) RenameCategory(ctx context.Context, id int64, name string) ([]models.Category, error) {
	if err := f.call("RenameCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].Name = name
		}
	}
	return slices.Clone(f.categories), nil
}

func (f *fakeBackend) DeleteCategory(ctx context.Context, id int64) ([]models.Category, error) {
	if err := f.call("DeleteCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = slices.DeleteFunc(f.categories, func(c models.Category) bool { return c.ID == id })
	return slices.Clone(f.categories), nil
}

func (f *fakeBackend) UpdateCategoryPosition(ctx context.Context, id int64, position int) ([]models.Category, error) {
	if err := f.call("UpdateCategoryPosition"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	from := slices.IndexFunc(f.categories, func(c models.Category) bool { return c.ID == id })
	c := f.categories[from]
	f.categories = slices.Insert(slices.Delete(f.categories, from, from+1), position, c)
	if f.moveReply != nil {
		return slices.Clone(f.moveReply), nil
	}
	return slices.Clone(f.categories), nil
}

func (f *fakeBackend) CategoryAccessRoles(ctx context.Context, id int64) ([]models.Role, error) {
	if err := f.call("CategoryAccessRoles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.granted["category"]), nil
}

func (f *fakeBackend) EditCategoryPermissions(ctx context.Context, id int64, roleIDs []int64) ([]models.Role, error) {
	if err := f.call("EditCategoryPermissions"); err != nil {
		return nil, err
	}
	return f.setGranted("category", roleIDs), nil
}

func (f *fakeBackend) setGranted(key string, ids []int64) []models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Role
	for _, r := range f.roles {
		if slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	f.granted[key] = out
	return slices.Clone(out)
}

func (f *fakeBackend) Channels(ctx context.Context, categoryID int64) ([]models.Channel, error) {
	f.mu.Lock()
	hook := f.onChannels
	n := f.calls["Channels"]
	if hook != nil {
		f.calls["Channels"]++
	}
	f.mu.Unlock()
	if hook != nil {
		return hook(n, categoryID)
	}
	if err := f.call("Channels"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.channels[categoryID]), nil
}

func (f *fakeBackend) CreateChannel(ctx context.Context, categoryID int64, name string, typ models.ChannelType) ([]models.Channel, error) {
	if err := f.call("CreateChannel"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	chans := f.channels[categoryID]
	chans = append(chans, models.Channel{ID: int64(500 + len(chans)), Name: name, Type: typ})
	f.channels[categoryID] = chans
	return slices.Clone(chans), nil
}

func (f *fakeBackend) RenameChannel(ctx context.Context, id int64, name string) ([]models.Channel, error) {
	if err := f.call("RenameChannel"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for cat, chans := range f.channels {
		for i := range chans {
			if chans[i].ID == id {
				chans[i].Name = name
				return slices.Clone(f.channels[cat]), nil
			}
		}
	}
	return nil, &gateway.APIError{Code: 404, Message: "channel not found"}
}

func (f *fakeBackend) DeleteChannel(ctx context.Context, id int64) ([]models.Channel, error) {
	if err := f.call("DeleteChannel"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for cat, chans := range f.channels {
		if slices.ContainsFunc(chans, func(c models.Channel) bool { return c.ID == id }) {
			f.channels[cat] = slices.DeleteFunc(chans, func(c models.Channel) bool { return c.ID == id })
			return slices.Clone(f.channels[cat]), nil
		}
	}
	return nil, &gateway.APIError{Code: 404, Message: "channel not found"}
}

// UpdateChannelPosition renumbers the channels of the same type densely.
func (f *fakeBackend) UpdateChannelPosition(ctx context.Context, id int64, position int) ([]models.Channel, error) {
	if err := f.call("UpdateChannelPosition"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for cat, chans := range f.channels {
		i := slices.IndexFunc(chans, func(c models.Channel) bool { return c.ID == id })
		if i < 0 {
			continue
		}
		moved := chans[i]
		var same, other []models.Channel
		for _, c := range chans {
			if c.ID == id {
				continue
			}
			if c.Type == moved.Type {
				same = append(same, c)
			} else {
				other = append(other, c)
			}
		}
		same = slices.Insert(same, min(position, len(same)), moved)
		for j := range same {
			same[j].Position = j
		}
		f.channels[cat] = append(same, other...)
		return nil, nil
	}
	return nil, &gateway.APIError{Code: 404, Message: "channel not found"}
}

func (f *fakeBackend) NonCategorizedTextChannels(ctx context.Context) ([]models.Channel, error) {
	if err := f.call("NonCategorizedTextChannels"); err != nil {
		return nil, err
	}
	return []models.Channel{{ID: 900, Name: "welcome", Type: models.ChannelTypeText}}, nil
}

func (f *fakeBackend) EditableRoles(ctx context.Context) ([]models.Role, error) {
	if err := f.call("EditableRoles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.roles), nil
}

func (f *fakeBackend) CreateRole(ctx context.Context, name string) ([]models.Role, error) {
	if err := f.call("CreateRole"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles = append(f.roles, models.Role{ID: int64(700 + len(f.roles)), Name: name})
	return slices.Clone(f.roles), nil
}

func (f *fakeBackend) RenameRole(ctx context.Context, id int64, name string) ([]models.Role, error) {
	if err := f.call("RenameRole"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.roles {
		if f.roles[i].ID == id {
			f.roles[i].Name = name
		}
	}
	return slices.Clone(f.roles), nil
}

func (f *fakeBackend) DeleteRole(ctx context.Context, id int64) ([]models.Role, error) {
	if err := f.call("DeleteRole"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles = slices.DeleteFunc(f.roles, func(r models.Role) bool { return r.ID == id })
	return slices.Clone(f.roles), nil
}

func (f *fakeBackend) Users(ctx context.Context) ([]models.User, error) {
	if err := f.call("Users"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.users), nil
}

func (f *fakeBackend) RenameUser(ctx context.Context, id, name string) ([]models.User, error) {
	if err := f.call("RenameUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Name = name
		}
	}
	return slices.Clone(f.users), nil
}

func (f *fakeBackend) KickUser(ctx context.Context, id string) ([]models.User, error) {
	if err := f.call("KickUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = slices.DeleteFunc(f.users, func(u models.User) bool { return u.ID == id })
	return slices.Clone(f.users), nil
}

func (f *fakeBackend) UserRoles(ctx context.Context, id string) ([]models.Role, error) {
	if err := f.call("UserRoles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.granted[id]), nil
}

func (f *fakeBackend) EditUserRoles(ctx context.Context, id string, roleIDs []int64) ([]models.Role, error) {
	if err := f.call("EditUserRoles"); err != nil {
		return nil, err
	}
	return f.setGranted(id, roleIDs), nil
}

func (f *fakeBackend) Logs(ctx context.Context) ([]models.LogEntry, error) {
	if err := f.call("Logs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.logs), nil
}

func (f *fakeBackend) CreateQueueMessage(ctx context.Context, channelID, title string, eventTime time.Time) error {
	if err := f.call("CreateQueueMessage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, "queue:"+channelID+":"+title)
	return nil
}

func (f *fakeBackend) CreateEvent(ctx context.Context, channelID, title string, eventTime time.Time) error {
	if err := f.call("CreateEvent"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, "event:"+channelID+":"+title)
	return nil
}

func (f *fakeBackend) ServerConfig(ctx context.Context) (models.ServerConfig, error) {
	if err := f.call("ServerConfig"); err != nil {
		return models.ServerConfig{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config, nil
}

func (f *fakeBackend) UpdateServerLanguage(ctx context.Context, language string) error {
	if err := f.call("UpdateServerLanguage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config.Language = language
	return nil
}

func (f *fakeBackend) CreateRegistrationMessage(ctx context.Context, channelID string) error {
	if err := f.call("CreateRegistrationMessage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if channelID == "" {
		channelID = "901"
	}
	f.config.Registration.ChannelID = &channelID
	return nil
}

func (f *fakeBackend) SetStaffCategory(ctx context.Context, categoryID string) error {
	if err := f.call("SetStaffCategory"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config.Staff.CategoryID = &categoryID
	return nil
}

func (f *fakeBackend) CreateStaffInfoMessage(ctx context.Context, channelID string) error {
	if err := f.call("CreateStaffInfoMessage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config.Staff.ChannelID = &channelID
	return nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	published    []models.ServerMessage
	disconnected []string
}

func (n *fakeNotifier) Publish(sessionID string, msg models.ServerMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, msg)
}

func (n *fakeNotifier) Disconnect(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disconnected = append(n.disconnected, sessionID)
}

func (n *fakeNotifier) pages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.published))
	for i, m := range n.published {
		out[i] = m.Page
	}
	return out
}
