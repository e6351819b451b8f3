package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps everything in process. It backs local development
// and tests, and can imitate the delay between creating a message table and
// the table becoming usable.
type MemoryRepository struct {
	mu            sync.RWMutex
	users         map[string]User
	conversations map[string]Conversation
	groups        map[string]Group
	tables        map[string]*memoryTable

	propagation time.Duration
	now         func() time.Time
}

type memoryTable struct {
	createdAt time.Time
	messages  map[messageKey]Message
}

type messageKey struct {
	authorID  string
	createdAt string
}

type MemoryOption func(*MemoryRepository)

// WithPropagationDelay keeps new message tables unusable for d.
func WithPropagationDelay(d time.Duration) MemoryOption {
	return func(r *MemoryRepository) {
		r.propagation = d
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRepository) {
		r.now = now
	}
}

func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		users:         make(map[string]User),
		conversations: make(map[string]Conversation),
		groups:        make(map[string]Group),
		tables:        make(map[string]*memoryTable),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return ErrConditionFailed
	}
	for _, u := range r.users {
		if u.UID == user.UID {
			return ErrConditionFailed
		}
	}
	r.users[user.Email] = user
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) QueryUsers(_ context.Context, query UserQuery) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[query.Email]
	if !ok || u.UID != query.UID || u.Token != query.Token {
		return nil, nil
	}
	return []User{u}, nil
}

func (r *MemoryRepository) SetToken(_ context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok {
		// an unconditional update creates the item, as DynamoDB does
		u = User{Email: email}
	}
	u.Token = token
	r.users[email] = u
	return nil
}

func (r *MemoryRepository) UpdateToken(_ context.Context, params UpdateTokenParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[params.Email]
	if !ok || u.UID != params.UID || u.Token != params.CurrentToken {
		return ErrConditionFailed
	}
	u.Token = params.NewToken
	r.users[params.Email] = u
	return nil
}

func (r *MemoryRepository) UpdateName(_ context.Context, params UpdateNameParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[params.Email]
	if !ok || u.UID != params.UID || u.Token != params.Token {
		return ErrConditionFailed
	}
	u.Name = params.Name
	r.users[params.Email] = u
	return nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, email)
	return nil
}

func (r *MemoryRepository) CountConversations(_ context.Context, user1, user2 string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	for _, c := range r.conversations {
		if c.User1 == user1 && c.User2 == user2 {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListConversations(_ context.Context, uid string) ([]Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	convs := make([]Conversation, 0)
	for _, c := range r.conversations {
		if uid == "" || c.User1 == uid || c.User2 == uid {
			convs = append(convs, c)
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].ID < convs[j].ID })
	return convs, nil
}

func (r *MemoryRepository) GetConversation(_ context.Context, id string) (Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	c.State = normalizeState(c.State)
	return c, nil
}

func (r *MemoryRepository) PutConversation(_ context.Context, conv Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conv.ID]; ok {
		return ErrConditionFailed
	}
	r.conversations[conv.ID] = conv
	return nil
}

func (r *MemoryRepository) DeleteConversation(_ context.Context, id, participant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if participant != "" && (!ok || (c.User1 != participant && c.User2 != participant)) {
		return ErrConditionFailed
	}
	delete(r.conversations, id)
	return nil
}

func (r *MemoryRepository) ListGroups(_ context.Context) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (r *MemoryRepository) GetGroup(_ context.Context, id string) (Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	g.State = normalizeState(g.State)
	return g, nil
}

func (r *MemoryRepository) PutGroup(_ context.Context, group Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[group.ID]; ok {
		return ErrConditionFailed
	}
	r.groups[group.ID] = group
	return nil
}

func (r *MemoryRepository) DeleteGroup(_ context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if owner != "" && (!ok || g.CreatedBy != owner) {
		return ErrConditionFailed
	}
	delete(r.groups, id)
	return nil
}

func (r *MemoryRepository) SetEntityState(_ context.Context, kind Kind, id string, from, to EntityState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case KindConversation:
		c, ok := r.conversations[id]
		if !ok || normalizeState(c.State) != from {
			return ErrConditionFailed
		}
		c.State = to
		r.conversations[id] = c
	case KindGroup:
		g, ok := r.groups[id]
		if !ok || normalizeState(g.State) != from {
			return ErrConditionFailed
		}
		g.State = to
		r.groups[id] = g
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

func (r *MemoryRepository) CreateMessageTable(_ context.Context, name string) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[name]; ok {
		return fmt.Errorf("table %q already exists", name)
	}
	r.tables[name] = &memoryTable{
		createdAt: r.now(),
		messages:  make(map[messageKey]Message),
	}
	return nil
}

func (r *MemoryRepository) DeleteMessageTable(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[name]; !ok {
		return ErrTableNotFound
	}
	delete(r.tables, name)
	return nil
}

func (r *MemoryRepository) MessageTableReady(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.activeTable(name)
	return ok, nil
}

// activeTable must be called with mu held.
func (r *MemoryRepository) activeTable(name string) (*memoryTable, bool) {
	t, ok := r.tables[name]
	if !ok || r.now().Before(t.createdAt.Add(r.propagation)) {
		return nil, false
	}
	return t, true
}

func (r *MemoryRepository) PutMessage(_ context.Context, table string, msg Message) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.activeTable(table)
	if !ok {
		return ErrTableNotFound
	}
	t.messages[messageKey{authorID: msg.AuthorID, createdAt: msg.CreatedAt}] = msg
	return nil
}

func (r *MemoryRepository) ScanMessages(_ context.Context, table, since string) ([]Message, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.activeTable(table)
	if !ok {
		return nil, ErrTableNotFound
	}

	msgs := make([]Message, 0, len(t.messages))
	for _, m := range t.messages {
		if since == "" || m.CreatedAt > since {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].AuthorID < msgs[j].AuthorID
	})
	return msgs, nil
}

func (r *MemoryRepository) ListTables(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
