package database

import "context"

// Repository is the store surface the handlers depend on. Conditional
// operations report a failed condition as ErrConditionFailed; operations on a
// message table that is missing or not yet active report ErrTableNotFound.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, email string) (User, error)
	QueryUsers(ctx context.Context, query UserQuery) ([]User, error)
	SetToken(ctx context.Context, email, token string) error
	UpdateToken(ctx context.Context, params UpdateTokenParams) error
	UpdateName(ctx context.Context, params UpdateNameParams) error
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, email string) error

	CountConversations(ctx context.Context, user1, user2 string) (int, error)
	// ListConversations returns the rows uid takes part in, or every row
	// when uid is empty.
	ListConversations(ctx context.Context, uid string) ([]Conversation, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	PutConversation(ctx context.Context, conv Conversation) error
	// DeleteConversation removes the row only if participant is user1 or
	// user2. An empty participant deletes unconditionally.
	DeleteConversation(ctx context.Context, id, participant string) error

	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	PutGroup(ctx context.Context, group Group) error
	// DeleteGroup removes the row only if owner created it. An empty owner
	// deletes unconditionally.
	DeleteGroup(ctx context.Context, id, owner string) error

	// SetEntityState moves a registry row from one state to another.
	SetEntityState(ctx context.Context, kind Kind, id string, from, to EntityState) error

	CreateMessageTable(ctx context.Context, name string) error
	DeleteMessageTable(ctx context.Context, name string) error
	MessageTableReady(ctx context.Context, name string) (bool, error)
	PutMessage(ctx context.Context, table string, msg Message) error
	// ScanMessages returns messages whose createdAt sorts after since.
	// An empty since returns everything.
	ScanMessages(ctx context.Context, table, since string) ([]Message, error)
	ListTables(ctx context.Context) ([]string, error)
}
