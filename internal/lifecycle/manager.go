// Package lifecycle keeps a registry row and its companion message table
// together as one conversation or group.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/ident"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
	"github.com/sirupsen/logrus"
)

// State is the observable state of an entity aggregate.
type State string

const (
	StateDeleted State = "deleted"
	StatePending State = "pending"
	StateReady   State = "ready"
)

type Manager struct {
	log   *logrus.Logger
	db    database.Repository
	stats stats.StatsProvider

	generateID func() (string, error)
	now        func() time.Time
}

type Option func(*Manager)

func WithIDGenerator(gen func() (string, error)) Option {
	return func(m *Manager) {
		m.generateID = gen
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(logger *logrus.Logger, db database.Repository, sp stats.StatsProvider, opts ...Option) *Manager {
	m := &Manager{
		log:        logger,
		db:         db,
		stats:      sp,
		generateID: ident.NewID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timestamp renders t the way createdAt attributes are stored.
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (m *Manager) timestamp() string {
	return Timestamp(m.now())
}

// CreateConversation opens a conversation between requester and companion.
// The pair is stored sorted so either side finds the same row.
func (m *Manager) CreateConversation(ctx context.Context, requester, companion string) (string, error) {
	pair := []string{requester, companion}
	sort.Strings(pair)

	n, err := m.db.CountConversations(ctx, pair[0], pair[1])
	if err != nil {
		return "", fmt.Errorf("count conversations: %w", err)
	}
	if n > 0 {
		return "", ErrDuplicateConversation
	}

	id, err := m.generateID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	if err := m.db.CreateMessageTable(ctx, database.KindConversation.TableName(id)); err != nil {
		return "", fmt.Errorf("create message table: %w", err)
	}

	err = m.db.PutConversation(ctx, database.Conversation{
		ID:        id,
		User1:     pair[0],
		User2:     pair[1],
		CreatedAt: m.timestamp(),
		State:     database.StatePending,
	})
	if err != nil {
		return "", fmt.Errorf("put conversation: %w", err)
	}

	m.stats.Incr(stats.EntitiesCreated, string(database.KindConversation))
	m.log.WithFields(logrus.Fields{"kind": database.KindConversation, "id": id}).Info("entity created")

	return id, nil
}

func (m *Manager) CreateGroup(ctx context.Context, owner, name string) (string, error) {
	id, err := m.generateID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	if err := m.db.CreateMessageTable(ctx, database.KindGroup.TableName(id)); err != nil {
		return "", fmt.Errorf("create message table: %w", err)
	}

	err = m.db.PutGroup(ctx, database.Group{
		ID:        id,
		Name:      name,
		CreatedBy: owner,
		CreatedAt: m.timestamp(),
		State:     database.StatePending,
	})
	if err != nil {
		return "", fmt.Errorf("put group: %w", err)
	}

	m.stats.Incr(stats.EntitiesCreated, string(database.KindGroup))
	m.log.WithFields(logrus.Fields{"kind": database.KindGroup, "id": id}).Info("entity created")

	return id, nil
}

// DeleteConversation removes the registry row if requester takes part in the
// conversation, then drops the message table.
func (m *Manager) DeleteConversation(ctx context.Context, requester, id string) error {
	return m.delete(ctx, database.KindConversation, id, func() error {
		return m.db.DeleteConversation(ctx, id, requester)
	})
}

// DeleteGroup removes the registry row if requester created the group, then
// drops the message table.
func (m *Manager) DeleteGroup(ctx context.Context, requester, id string) error {
	return m.delete(ctx, database.KindGroup, id, func() error {
		return m.db.DeleteGroup(ctx, id, requester)
	})
}

func (m *Manager) delete(ctx context.Context, kind database.Kind, id string, deleteRow func() error) error {
	if err := deleteRow(); err != nil {
		if errors.Is(err, database.ErrConditionFailed) {
			return ErrInvalidID
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	// the row is gone, a failed drop only leaves an orphan table
	m.dropTable(ctx, kind, id)

	m.stats.Incr(stats.EntitiesDeleted, string(kind))
	m.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("entity deleted")

	return nil
}

func (m *Manager) dropTable(ctx context.Context, kind database.Kind, id string) error {
	if err := m.db.DeleteMessageTable(ctx, kind.TableName(id)); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"kind":  kind,
			"id":    id,
			"table": kind.TableName(id),
		}).Warn("failed to delete message table")
		m.stats.Incr(stats.TableDeleteFailures, string(kind))
		return err
	}
	return nil
}

func (m *Manager) registryState(ctx context.Context, kind database.Kind, id string) (database.EntityState, error) {
	switch kind {
	case database.KindConversation:
		c, err := m.db.GetConversation(ctx, id)
		return c.State, err
	case database.KindGroup:
		g, err := m.db.GetGroup(ctx, id)
		return g.State, err
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (m *Manager) exists(ctx context.Context, kind database.Kind, id string) (bool, error) {
	_, err := m.registryState(ctx, kind, id)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", kind, err)
	}
	return true, nil
}

// Resolve reports the state of an entity. A pending row whose message table
// has become active is promoted to ready on the way.
func (m *Manager) Resolve(ctx context.Context, kind database.Kind, id string) (State, error) {
	table := kind.TableName(id)
	if err := database.ValidateTableName(table); err != nil {
		return "", err
	}

	state, err := m.registryState(ctx, kind, id)
	if errors.Is(err, database.ErrNotFound) {
		return StateDeleted, nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", kind, err)
	}
	if state != database.StatePending {
		return StateReady, nil
	}

	ready, err := m.db.MessageTableReady(ctx, table)
	if err != nil {
		return "", fmt.Errorf("check message table: %w", err)
	}
	if !ready {
		return StatePending, nil
	}

	err = m.db.SetEntityState(ctx, kind, id, database.StatePending, database.StateReady)
	if err != nil && !errors.Is(err, database.ErrConditionFailed) {
		m.log.WithError(err).WithFields(logrus.Fields{"kind": kind, "id": id}).Warn("failed to promote entity")
	}

	return StateReady, nil
}

// Append writes a message from authorID into the entity's table.
func (m *Manager) Append(ctx context.Context, kind database.Kind, id, authorID, message string) error {
	state, err := m.Resolve(ctx, kind, id)
	if err != nil {
		return err
	}

	switch state {
	case StateDeleted:
		return ErrInvalidID
	case StatePending:
		return ErrRoomNotReady
	}

	err = m.db.PutMessage(ctx, kind.TableName(id), database.Message{
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: m.timestamp(),
	})
	if errors.Is(err, database.ErrTableNotFound) {
		found, err := m.exists(ctx, kind, id)
		if err != nil {
			return err
		}
		if found {
			return ErrRoomNotReady
		}
		return ErrInvalidID
	}
	if err != nil {
		return fmt.Errorf("put message: %w", err)
	}

	m.stats.Incr(stats.MessagesAppended, string(kind))
	return nil
}

// Read returns the entity's messages created after since. An entity whose
// table is not usable yet has no messages.
func (m *Manager) Read(ctx context.Context, kind database.Kind, id, since string) ([]database.Message, error) {
	state, err := m.Resolve(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	switch state {
	case StateDeleted:
		return nil, ErrInvalidID
	case StatePending:
		return []database.Message{}, nil
	}

	msgs, err := m.db.ScanMessages(ctx, kind.TableName(id), since)
	if errors.Is(err, database.ErrTableNotFound) {
		found, err := m.exists(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if found {
			return []database.Message{}, nil
		}
		return nil, ErrInvalidID
	}
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	return msgs, nil
}
