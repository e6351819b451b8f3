package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	manager *Manager
	repo    *database.MemoryRepository
	now     time.Time
}

// newFixture returns a manager over an in-memory store whose message tables
// become usable one second after creation.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.UnixMilli(1700000000000)}
	clock := func() time.Time { return f.now }

	var seq int
	ids := func() (string, error) {
		seq++
		return fmt.Sprintf("id%09d", seq), nil
	}

	logger, _ := testutil.TestLogger(t)
	f.repo = database.NewMemoryRepository(
		database.WithPropagationDelay(time.Second),
		database.WithClock(clock),
	)
	f.manager = NewManager(logger, f.repo, stats.NewStatsUpdater(nil), WithIDGenerator(ids), WithClock(clock))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestCreateConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.manager.CreateConversation(ctx, "zed", "amy")
	require.NoError(t, err)

	conv, err := f.repo.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "amy", conv.User1, "expected the pair to be stored sorted")
	assert.Equal(t, "zed", conv.User2)
	assert.Equal(t, database.StatePending, conv.State)
	assert.Equal(t, "1700000000000", conv.CreatedAt)

	tcases := []struct {
		name      string
		requester string
		companion string
	}{
		{name: "same order", requester: "zed", companion: "amy"},
		{name: "reversed order", requester: "amy", companion: "zed"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.manager.CreateConversation(ctx, tc.requester, tc.companion)
			assert.ErrorIs(t, err, ErrDuplicateConversation)
		})
	}
}

func TestCreateConversationTableFailure(t *testing.T) {
	repo := &database.MockRepository{}
	defer repo.AssertExpectations(t)
	logger, _ := testutil.TestLogger(t)

	repo.On("CountConversations", mock.Anything, "a", "b").Return(0, nil).Once()
	repo.On("CreateMessageTable", mock.Anything, "conversation-c1").Return(errors.New("limit exceeded")).Once()

	m := NewManager(logger, repo, stats.NewStatsUpdater(nil), WithIDGenerator(func() (string, error) { return "c1", nil }))
	_, err := m.CreateConversation(context.Background(), "b", "a")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "PutConversation", mock.Anything, mock.Anything)
}

func TestDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	groupID, err := f.manager.CreateGroup(ctx, "owner", "team")
	require.NoError(t, err)
	convID, err := f.manager.CreateConversation(ctx, "amy", "zed")
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.DeleteGroup(ctx, "member", groupID), ErrInvalidID)
	assert.ErrorIs(t, f.manager.DeleteConversation(ctx, "stranger", convID), ErrInvalidID)

	tables, err := f.repo.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 2, "expected tables to survive a failed ownership check")

	require.NoError(t, f.manager.DeleteGroup(ctx, "owner", groupID))
	require.NoError(t, f.manager.DeleteConversation(ctx, "zed", convID))

	tables, err = f.repo.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	assert.ErrorIs(t, f.manager.DeleteGroup(ctx, "owner", groupID), ErrInvalidID, "expected a second delete to fail")
}

func TestDeleteSwallowsTableFailure(t *testing.T) {
	repo := &database.MockRepository{}
	defer repo.AssertExpectations(t)
	sp := &stats.MockStatsUpdater{}
	defer sp.AssertExpectations(t)
	logger, hook := testutil.TestLogger(t)

	repo.On("DeleteGroup", mock.Anything, "g1", "owner").Return(nil).Once()
	repo.On("DeleteMessageTable", mock.Anything, "group-g1").Return(errors.New("throttled")).Once()
	sp.On("Incr", stats.TableDeleteFailures, "group").Once()
	sp.On("Incr", stats.EntitiesDeleted, "group").Once()

	m := NewManager(logger, repo, sp)
	require.NoError(t, m.DeleteGroup(context.Background(), "owner", "g1"))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "failed to delete message table" {
			warned = true
		}
	}
	assert.True(t, warned, "expected the table failure to be logged")
}

func TestReadAfterCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.manager.CreateGroup(ctx, "owner", "team")
	require.NoError(t, err)

	state, err := f.manager.Resolve(ctx, database.KindGroup, id)
	require.NoError(t, err)
	assert.Equal(t, StatePending, state)

	msgs, err := f.manager.Read(ctx, database.KindGroup, id, "")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, f.manager.Append(ctx, database.KindGroup, id, "owner", "hi"), ErrRoomNotReady)

	f.advance(time.Second)

	state, err = f.manager.Resolve(ctx, database.KindGroup, id)
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)

	g, err := f.repo.GetGroup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, database.StateReady, g.State, "expected the row to be promoted")
}

func TestAppendUnknownEntity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.manager.Append(ctx, database.KindConversation, "nope", "a", "hi"), ErrInvalidID)

	_, err := f.manager.Read(ctx, database.KindConversation, "nope", "")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = f.manager.Read(ctx, database.KindConversation, "bad id!", "")
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestMissingTableAfterReady(t *testing.T) {
	tcases := []struct {
		name        string
		state       database.EntityState
		write       bool
		rowGone     bool
		expectedErr error
	}{
		{name: "append, row present", state: database.StateReady, write: true, expectedErr: ErrRoomNotReady},
		{name: "append, row gone", state: database.StateReady, write: true, rowGone: true, expectedErr: ErrInvalidID},
		{name: "append, legacy row gone", write: true, rowGone: true, expectedErr: ErrInvalidID},
		{name: "read, row present", state: database.StateReady},
		{name: "read, legacy row present"},
		{name: "read, row gone", state: database.StateReady, rowGone: true, expectedErr: ErrInvalidID},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &database.MockRepository{}
			defer repo.AssertExpectations(t)
			logger, _ := testutil.TestLogger(t)

			row := database.Conversation{ID: "c1", State: tc.state}
			repo.On("GetConversation", mock.Anything, "c1").Return(row, nil).Once()
			if tc.rowGone {
				repo.On("GetConversation", mock.Anything, "c1").Return(database.Conversation{}, database.ErrNotFound).Once()
			} else {
				repo.On("GetConversation", mock.Anything, "c1").Return(row, nil).Once()
			}

			m := NewManager(logger, repo, stats.NewStatsUpdater(nil))
			ctx := context.Background()

			if tc.write {
				repo.On("PutMessage", mock.Anything, "conversation-c1", mock.Anything).Return(database.ErrTableNotFound).Once()

				err := m.Append(ctx, database.KindConversation, "c1", "a", "hi")
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			repo.On("ScanMessages", mock.Anything, "conversation-c1", "").Return(nil, database.ErrTableNotFound).Once()

			msgs, err := m.Read(ctx, database.KindConversation, "c1", "")
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, msgs)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, msgs)
			assert.Empty(t, msgs)
		})
	}
}

func TestReadSince(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.manager.CreateConversation(ctx, "a", "b")
	require.NoError(t, err)
	f.advance(time.Second)

	table := database.KindConversation.TableName(id)
	_, err = f.manager.Resolve(ctx, database.KindConversation, id)
	require.NoError(t, err)
	for _, ts := range []string{"1700000000100", "1700000000200", "1700000000300"} {
		require.NoError(t, f.repo.PutMessage(ctx, table, database.Message{AuthorID: "a", Message: "m", CreatedAt: ts}))
	}

	msgs, err := f.manager.Read(ctx, database.KindConversation, id, "1700000000150")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1700000000200", msgs[0].CreatedAt)
	assert.Equal(t, "1700000000300", msgs[1].CreatedAt)

	require.NoError(t, f.manager.Append(ctx, database.KindConversation, id, "b", "hello"))
	msgs, err = f.manager.Read(ctx, database.KindConversation, id, "1700000000300")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Message)
	assert.Equal(t, "b", msgs[0].AuthorID)
}
