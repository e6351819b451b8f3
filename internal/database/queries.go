package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

func (db *PgRepository) CreateUser(ctx context.Context, user User) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (email, uid, name, password, token, created_at, is_verified) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7)",
		user.Email,
		user.UID,
		user.Name,
		user.PasswordHash,
		user.Token,
		user.CreatedAt,
		user.IsVerified,
	)
	return mapPgError(err)
}

func (db *PgRepository) GetUser(ctx context.Context, email string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT email, uid, name, password, token, created_at, is_verified FROM users "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Email,
		&u.UID,
		&u.Name,
		&u.PasswordHash,
		&u.Token,
		&u.CreatedAt,
		&u.IsVerified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}

	return u, err
}

func (db *PgRepository) QueryUsers(ctx context.Context, query UserQuery) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT email, created_at, name, uid FROM users "+
			"WHERE email = $1 AND token = $2 AND uid = $3",
		query.Email,
		query.Token,
		query.UID,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.CreatedAt, &u.Name, &u.UID); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgRepository) SetToken(ctx context.Context, email, token string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE users SET token = $2 WHERE email = $1",
		email,
		token,
	)
	return mapPgError(err)
}

func (db *PgRepository) UpdateToken(ctx context.Context, params UpdateTokenParams) error {
	return expectAffected(db.conn.ExecContext(ctx,
		"UPDATE users SET token = $4 WHERE email = $1 AND uid = $2 AND token = $3",
		params.Email,
		params.UID,
		params.CurrentToken,
		params.NewToken,
	))
}

func (db *PgRepository) UpdateName(ctx context.Context, params UpdateNameParams) error {
	return expectAffected(db.conn.ExecContext(ctx,
		"UPDATE users SET name = $4 WHERE email = $1 AND uid = $2 AND token = $3",
		params.Email,
		params.UID,
		params.Token,
		params.Name,
	))
}

func (db *PgRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT email, uid, name FROM users ORDER BY email")
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.UID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgRepository) DeleteUser(ctx context.Context, email string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM users WHERE email = $1", email)
	return mapPgError(err)
}

func (db *PgRepository) CountConversations(ctx context.Context, user1, user2 string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversations WHERE user1 = $1 AND user2 = $2",
		user1,
		user2,
	).Scan(&n)

	return n, mapPgError(err)
}

func (db *PgRepository) ListConversations(ctx context.Context, uid string) ([]Conversation, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, user1, user2, created_at, state FROM conversations "+
			"WHERE $1 = '' OR user1 = $1 OR user2 = $1 ORDER BY id",
		uid,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	convs := make([]Conversation, 0)
	for rows.Next() {
		var (
			c     Conversation
			state string
		)
		if err := rows.Scan(&c.ID, &c.User1, &c.User2, &c.CreatedAt, &state); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		c.State = normalizeState(EntityState(state))
		convs = append(convs, c)
	}

	return convs, rows.Err()
}

func (db *PgRepository) GetConversation(ctx context.Context, id string) (Conversation, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, user1, user2, created_at, state FROM conversations WHERE id = $1 LIMIT 1",
		id,
	)

	var (
		c     Conversation
		state string
	)
	err := row.Scan(&c.ID, &c.User1, &c.User2, &c.CreatedAt, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	c.State = normalizeState(EntityState(state))

	return c, err
}

func (db *PgRepository) PutConversation(ctx context.Context, conv Conversation) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO conversations (id, user1, user2, created_at, state) "+
			"VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), 'ready'))",
		conv.ID,
		conv.User1,
		conv.User2,
		conv.CreatedAt,
		string(conv.State),
	)
	return mapPgError(err)
}

func (db *PgRepository) DeleteConversation(ctx context.Context, id, participant string) error {
	if participant == "" {
		_, err := db.conn.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
		return mapPgError(err)
	}

	return expectAffected(db.conn.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = $1 AND (user1 = $2 OR user2 = $2)",
		id,
		participant,
	))
}

func (db *PgRepository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, created_by, created_at, state FROM chat_groups ORDER BY id",
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	groups := make([]Group, 0)
	for rows.Next() {
		var (
			g     Group
			state string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &state); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		g.State = normalizeState(EntityState(state))
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

func (db *PgRepository) GetGroup(ctx context.Context, id string) (Group, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at, state FROM chat_groups WHERE id = $1 LIMIT 1",
		id,
	)

	var (
		g     Group
		state string
	)
	err := row.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	g.State = normalizeState(EntityState(state))

	return g, err
}

func (db *PgRepository) PutGroup(ctx context.Context, group Group) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO chat_groups (id, name, created_by, created_at, state) "+
			"VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), 'ready'))",
		group.ID,
		group.Name,
		group.CreatedBy,
		group.CreatedAt,
		string(group.State),
	)
	return mapPgError(err)
}

func (db *PgRepository) DeleteGroup(ctx context.Context, id, owner string) error {
	if owner == "" {
		_, err := db.conn.ExecContext(ctx, "DELETE FROM chat_groups WHERE id = $1", id)
		return mapPgError(err)
	}

	return expectAffected(db.conn.ExecContext(ctx,
		"DELETE FROM chat_groups WHERE id = $1 AND created_by = $2",
		id,
		owner,
	))
}

func (db *PgRepository) SetEntityState(ctx context.Context, kind Kind, id string, from, to EntityState) error {
	table, err := registryTable(kind)
	if err != nil {
		return err
	}

	return expectAffected(db.conn.ExecContext(ctx,
		"UPDATE "+table+" SET state = $3 WHERE id = $1 AND state = $2",
		id,
		string(from),
		string(to),
	))
}

// PostgreSQL truncates identifiers longer than this without an error.
const pgMaxIdentifierLen = 63

func validatePgTableName(name string) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}
	if len(name) > pgMaxIdentifierLen {
		return fmt.Errorf("table name %q longer than %d bytes: %w", name, pgMaxIdentifierLen, ErrValidation)
	}
	return nil
}

func (db *PgRepository) CreateMessageTable(ctx context.Context, name string) error {
	if err := validatePgTableName(name); err != nil {
		return err
	}

	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE %s (author_id TEXT NOT NULL, message TEXT NOT NULL, created_at TEXT NOT NULL, "+
			"PRIMARY KEY (author_id, created_at))",
		pq.QuoteIdentifier(name),
	))
	return mapPgError(err)
}

func (db *PgRepository) DeleteMessageTable(ctx context.Context, name string) error {
	_, err := db.conn.ExecContext(ctx, "DROP TABLE "+pq.QuoteIdentifier(name))
	return mapPgError(err)
}

func (db *PgRepository) MessageTableReady(ctx context.Context, name string) (bool, error) {
	if err := validatePgTableName(name); err != nil {
		return false, err
	}

	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables "+
			"WHERE table_schema = current_schema() AND table_name = $1)",
		name,
	).Scan(&exists)

	return exists, err
}

func (db *PgRepository) PutMessage(ctx context.Context, table string, msg Message) error {
	if err := validatePgTableName(table); err != nil {
		return err
	}

	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (author_id, message, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (author_id, created_at) DO UPDATE SET message = EXCLUDED.message",
		pq.QuoteIdentifier(table),
	),
		msg.AuthorID,
		msg.Message,
		msg.CreatedAt,
	)
	return mapPgError(err)
}

func (db *PgRepository) ScanMessages(ctx context.Context, table, since string) ([]Message, error) {
	if err := validatePgTableName(table); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		"SELECT author_id, message, created_at FROM %s "+
			"WHERE $1 = '' OR created_at > $1 ORDER BY created_at, author_id",
		pq.QuoteIdentifier(table),
	), since)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.AuthorID, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

func (db *PgRepository) ListTables(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables "+
			"WHERE table_schema = current_schema() ORDER BY table_name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
