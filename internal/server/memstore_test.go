package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sonder-app/sonder-api/internal/db"
)

// memStore is an in-memory Store with the constraints of the SQL schema.
type memStore struct {
	mu            sync.Mutex
	now           time.Time
	pingErr       error
	users         map[uuid.UUID]*db.User
	prompts       map[uuid.UUID]*db.Prompt
	responses     map[uuid.UUID]*db.Response
	comments      map[uuid.UUID]*db.Comment
	notifications map[uuid.UUID]*db.Notification
}

func newMemStore() *memStore {
	return &memStore{
		now:           time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		users:         map[uuid.UUID]*db.User{},
		prompts:       map[uuid.UUID]*db.Prompt{},
		responses:     map[uuid.UUID]*db.Response{},
		comments:      map[uuid.UUID]*db.Comment{},
		notifications: map[uuid.UUID]*db.Notification{},
	}
}

// tick returns a strictly increasing timestamp so orderings are stable.
func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func notFound(op string) error { return fmt.Errorf("%s: %w", op, db.ErrNotFound) }

func page[T any](items []T, opts db.ListOptions) []T {
	limit := opts.Limit
	if limit == 0 || limit > db.MaxListLimit {
		limit = db.MaxListLimit
	}
	if opts.Offset >= uint64(len(items)) {
		return []T{}
	}
	end := min(opts.Offset+limit, uint64(len(items)))
	return items[opts.Offset:end]
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, username, email, passwordHash string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("create user: %w", db.ErrAlreadyExists)
		}
	}
	now := m.tick()
	u := &db.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByLogin(_ context.Context, login string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("get user by login")
}

func (m *memStore) ListUsers(_ context.Context, opts db.ListOptions) ([]db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memStore) UpdateUser(_ context.Context, id uuid.UUID, update db.UserUpdate) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("update user")
	}
	for _, other := range m.users {
		if other.ID == id {
			continue
		}
		if (update.Username != nil && strings.EqualFold(other.Username, *update.Username)) ||
			(update.Email != nil && strings.EqualFold(other.Email, *update.Email)) {
			return nil, fmt.Errorf("update user: %w", db.ErrAlreadyExists)
		}
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	u.UpdatedAt = m.tick()
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return notFound("update password")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return notFound("delete user")
	}
	delete(m.users, id)
	for rid, r := range m.responses {
		if r.UserID == id {
			m.deleteResponseLocked(rid)
		}
	}
	for cid, c := range m.comments {
		if c.UserID == id {
			delete(m.comments, cid)
		}
	}
	for nid, n := range m.notifications {
		if n.UserID == id {
			delete(m.notifications, nid)
		}
	}
	return nil
}

func (m *memStore) CreatePrompt(_ context.Context, in db.PromptInput) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPromptLocked(in)
}

func (m *memStore) insertPromptLocked(in db.PromptInput) (*db.Prompt, error) {
	if in.IsActive && m.activeLocked() != nil {
		return nil, fmt.Errorf("create prompt: another prompt is active: %w", db.ErrConflict)
	}
	source := in.Source
	if source == "" {
		source = db.PromptSourceManual
	}
	p := &db.Prompt{
		ID:           uuid.New(),
		Content:      in.Content,
		ScheduledFor: in.ScheduledFor,
		IsActive:     in.IsActive,
		Source:       source,
		Outcome:      in.Outcome,
		CreatedAt:    m.tick(),
	}
	m.prompts[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) activeLocked() *db.Prompt {
	for _, p := range m.prompts {
		if p.IsActive {
			return p
		}
	}
	return nil
}

func (m *memStore) GetPrompt(_ context.Context, id uuid.UUID) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prompts[id]
	if !ok {
		return nil, notFound("get prompt")
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPrompts(_ context.Context, opts db.ListOptions) ([]db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.Prompt, 0, len(m.prompts))
	for _, p := range m.prompts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memStore) GetActivePrompt(context.Context) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.activeLocked()
	if p == nil {
		return nil, notFound("get active prompt")
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ActivatePrompt(_ context.Context, id uuid.UUID) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prompts[id]
	if !ok {
		return nil, notFound("activate prompt")
	}
	if active := m.activeLocked(); active != nil && active.ID != id {
		return nil, fmt.Errorf("activate prompt: another prompt is active: %w", db.ErrConflict)
	}
	p.IsActive = true
	cp := *p
	return &cp, nil
}

func (m *memStore) DeactivatePrompt(_ context.Context, id uuid.UUID) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prompts[id]
	if !ok {
		return nil, notFound("deactivate prompt")
	}
	p.IsActive = false
	cp := *p
	return &cp, nil
}

func (m *memStore) DeletePrompt(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prompts[id]; !ok {
		return notFound("delete prompt")
	}
	delete(m.prompts, id)
	for rid, r := range m.responses {
		if r.PromptID == id {
			m.deleteResponseLocked(rid)
		}
	}
	return nil
}

func (m *memStore) RotateActivePrompt(_ context.Context, in db.PromptInput) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prompts {
		p.IsActive = false
	}
	in.IsActive = true
	return m.insertPromptLocked(in)
}

func (m *memStore) CreateResponse(_ context.Context, in db.ResponseInput) (*db.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[in.UserID]; !ok {
		return nil, notFound("create response")
	}
	if _, ok := m.prompts[in.PromptID]; !ok {
		return nil, notFound("create response")
	}
	for _, r := range m.responses {
		if r.UserID == in.UserID && r.PromptID == in.PromptID {
			return nil, fmt.Errorf("create response: %w", db.ErrAlreadyExists)
		}
	}
	now := m.tick()
	r := &db.Response{
		ID: uuid.New(), UserID: in.UserID, PromptID: in.PromptID, Content: in.Content,
		Image: in.Image, Anonymous: in.Anonymous, CreatedAt: now, UpdatedAt: now,
	}
	m.responses[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *memStore) GetResponse(_ context.Context, id uuid.UUID) (*db.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return nil, notFound("get response")
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) listResponses(match func(*db.Response) bool, opts db.ListOptions) []db.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Response{}
	for _, r := range m.responses {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts)
}

func (m *memStore) ListResponsesByUser(_ context.Context, userID uuid.UUID, opts db.ListOptions) ([]db.Response, error) {
	return m.listResponses(func(r *db.Response) bool { return r.UserID == userID }, opts), nil
}

func (m *memStore) ListResponsesByPrompt(_ context.Context, promptID uuid.UUID, opts db.ListOptions) ([]db.Response, error) {
	return m.listResponses(func(r *db.Response) bool { return r.PromptID == promptID }, opts), nil
}

func (m *memStore) UpdateResponse(_ context.Context, userID, promptID uuid.UUID, update db.ResponseUpdate) (*db.Response, error) {
	if update.Empty() {
		return nil, fmt.Errorf("update response: %w", db.ErrInvalid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.UserID != userID || r.PromptID != promptID {
			continue
		}
		if update.Content != nil {
			r.Content = *update.Content
		}
		if update.Image != nil {
			r.Image = update.Image
		}
		if update.Anonymous != nil {
			r.Anonymous = *update.Anonymous
		}
		r.UpdatedAt = m.tick()
		cp := *r
		return &cp, nil
	}
	return nil, notFound("update response")
}

func (m *memStore) DeleteResponse(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[id]; !ok {
		return notFound("delete response")
	}
	m.deleteResponseLocked(id)
	return nil
}

func (m *memStore) deleteResponseLocked(id uuid.UUID) {
	delete(m.responses, id)
	for cid, c := range m.comments {
		if c.ResponseID == id {
			delete(m.comments, cid)
		}
	}
}

func (m *memStore) CreateComment(_ context.Context, userID, responseID uuid.UUID, content string) (*db.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.responses[responseID]
	if !ok {
		return nil, notFound("create comment")
	}
	if _, ok := m.users[userID]; !ok {
		return nil, notFound("create comment")
	}
	c := &db.Comment{ID: uuid.New(), UserID: userID, ResponseID: responseID, Content: content, CreatedAt: m.tick()}
	m.comments[c.ID] = c
	if resp.UserID != userID {
		text := content
		rid, cid := responseID, c.ID
		m.addNotificationLocked(db.Notification{
			UserID: resp.UserID, Type: db.NotificationComment, Content: &text, ResponseID: &rid, CommentID: &cid,
		})
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) listComments(match func(*db.Comment) bool, newestFirst bool, opts db.ListOptions) []db.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Comment{}
	for _, c := range m.comments {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return page(out, opts)
}

func (m *memStore) ListCommentsByResponse(_ context.Context, responseID uuid.UUID, opts db.ListOptions) ([]db.Comment, error) {
	return m.listComments(func(c *db.Comment) bool { return c.ResponseID == responseID }, false, opts), nil
}

func (m *memStore) ListCommentsByUser(_ context.Context, userID uuid.UUID, opts db.ListOptions) ([]db.Comment, error) {
	return m.listComments(func(c *db.Comment) bool { return c.UserID == userID }, true, opts), nil
}

func (m *memStore) addNotificationLocked(n db.Notification) {
	n.ID = uuid.New()
	n.CreatedAt = m.tick()
	m.notifications[n.ID] = &n
}

func (m *memStore) NotifyAllUsers(_ context.Context, kind string, content *string, promptID *uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.users {
		m.addNotificationLocked(db.Notification{UserID: id, Type: kind, Content: content, PromptID: promptID})
	}
	return int64(len(m.users)), nil
}

func (m *memStore) ListNotifications(_ context.Context, userID uuid.UUID, unreadOnly bool, opts db.ListOptions) ([]db.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, userID, id uuid.UUID) (*db.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return nil, notFound("mark notification read")
	}
	n.IsRead = true
	cp := *n
	return &cp, nil
}

func (m *memStore) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

var _ Store = (*memStore)(nil)
