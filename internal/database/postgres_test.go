package database

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPg(t *testing.T) (*PgRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPgRepositoryFromDB(db), mock
}

func TestPgRepository_CreateUserDuplicate(t *testing.T) {
	repo, mock := newMockPg(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("a@example.com", "uid1", "Ann", "hash", "", "100", false).
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	err := repo.CreateUser(context.Background(), User{
		Email: "a@example.com", UID: "uid1", Name: "Ann", PasswordHash: "hash", CreatedAt: "100",
	})
	assert.ErrorIs(t, err, ErrConditionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_GetUserNotFound(t *testing.T) {
	repo, mock := newMockPg(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email, uid, name, password, token, created_at, is_verified FROM users")).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "uid", "name", "password", "token", "created_at", "is_verified"}))

	_, err := repo.GetUser(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_UpdateToken(t *testing.T) {
	tcases := []struct {
		name     string
		affected int64
		expected error
	}{
		{name: "token matches", affected: 1, expected: nil},
		{name: "stale token", affected: 0, expected: ErrConditionFailed},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockPg(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET token = $4")).
				WithArgs("a@example.com", "uid1", "tok", "").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := repo.UpdateToken(context.Background(), UpdateTokenParams{
				Email: "a@example.com", UID: "uid1", CurrentToken: "tok",
			})
			if tc.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgRepository_ScanMessages(t *testing.T) {
	repo, mock := newMockPg(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "group-g1"`)).
		WithArgs("150").
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "message", "created_at"}).
			AddRow("a", "two", "200").
			AddRow("b", "three", "300"))

	msgs, err := repo.ScanMessages(context.Background(), "group-g1", "150")
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{AuthorID: "a", Message: "two", CreatedAt: "200"},
		{AuthorID: "b", Message: "three", CreatedAt: "300"},
	}, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ScanMessagesMissingTable(t *testing.T) {
	repo, mock := newMockPg(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "conversation-c1"`)).
		WithArgs("").
		WillReturnError(&pq.Error{Code: pgUndefinedTable})

	_, err := repo.ScanMessages(context.Background(), "conversation-c1", "")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_DeleteGroupOwnership(t *testing.T) {
	repo, mock := newMockPg(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chat_groups WHERE id = $1 AND created_by = $2")).
		WithArgs("g1", "stranger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteGroup(context.Background(), "g1", "stranger")
	assert.ErrorIs(t, err, ErrConditionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_MessageTableNames(t *testing.T) {
	long := KindConversation.TableName(strings.Repeat("a", 64-len("conversation-")))
	require.Len(t, long, 64)

	tcases := []struct {
		name  string
		table string
	}{
		{name: "too short", table: "x"},
		{name: "illegal characters", table: "group-bad id!"},
		{name: "longer than a pg identifier", table: long},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockPg(t)
			ctx := context.Background()

			assert.ErrorIs(t, repo.CreateMessageTable(ctx, tc.table), ErrValidation)
			assert.ErrorIs(t, repo.PutMessage(ctx, tc.table, Message{AuthorID: "a", Message: "m", CreatedAt: "1"}), ErrValidation)

			_, err := repo.ScanMessages(ctx, tc.table, "")
			assert.ErrorIs(t, err, ErrValidation)

			_, err = repo.MessageTableReady(ctx, tc.table)
			assert.ErrorIs(t, err, ErrValidation)

			assert.NoError(t, mock.ExpectationsWereMet(), "no statement reaches the database")
		})
	}
}

func TestPgRepository_CreateMessageTableAtIdentifierLimit(t *testing.T) {
	repo, mock := newMockPg(t)
	name := KindGroup.TableName(strings.Repeat("a", 63-len("group-")))

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE " + pq.QuoteIdentifier(name))).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.CreateMessageTable(context.Background(), name))
	assert.NoError(t, mock.ExpectationsWereMet())
}
